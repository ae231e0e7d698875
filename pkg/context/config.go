package context

type RouterType string

const (
	Login        RouterType = "Login"
	Register     RouterType = "Register"
	Items        RouterType = "Items"
	Item         RouterType = "Item"
	Sales        RouterType = "Sales"
	ReverseProxy RouterType = "ReverseProxy"
	Health       RouterType = "Health"
	Metrics      RouterType = "Metrics"
)

type FilterType string

const (
	LogFilter               FilterType = "LogFilter"
	RecoveryFilter          FilterType = "RecoveryFilter"
	TokenVerificationFilter FilterType = "TokenVerificationFilter"
	UserIdentityFilter      FilterType = "UserIdentityFilter"
	RateLimitFilter         FilterType = "RateLimitFilter"
	MetricsFilter           FilterType = "MetricsFilter"
)

type Filter struct {
	Type              FilterType
	Name              string
	Template          string
	ProtectedPrefix   string   `mapstructure:"protected-prefix" yaml:"protected-prefix,omitempty"`
	PublicPaths       []string `mapstructure:"public-paths" yaml:"public-paths,omitempty"`
	UserDataHeader    string   `mapstructure:"user-data-header" yaml:"user-data-header,omitempty"`
	RequestsPerSecond float64  `mapstructure:"requests-per-second" yaml:"requests-per-second,omitempty"`
	Burst             int      `yaml:"burst,omitempty"`
}

type Router struct {
	TargetUrl string `mapstructure:"target-url" yaml:"target-url,omitempty"`
	Type      RouterType
	Pattern   string
	Filters   []Filter
}

type LogLevel string

const (
	Debug LogLevel = "debug"
	Trace LogLevel = "trace"
	Info  LogLevel = "info"
)

type GatewayConfiguration struct {
	LogLevel               LogLevel `mapstructure:"log-level" yaml:"log-level"`
	Port                   int
	ApiUrl                 string `mapstructure:"api-url" yaml:"api-url"`
	JwtSecret              string `mapstructure:"jwt-secret" yaml:"-"`
	UpstreamTimeoutSeconds int    `mapstructure:"upstream-timeout-seconds" yaml:"upstream-timeout-seconds"`
	Filters                []Filter
	Routers                []Router
}

// Paths reachable without a bearer token.
var DefaultPublicPaths = []string{"/api/auth/login", "/api/auth/register"}

const DefaultProtectedPrefix = "/api/"
