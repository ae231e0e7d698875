package filters

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/go-playground/validator.v9"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	TooManyRequestsMessage = "Too many requests."
	minimumLimiterIdle     = time.Minute
)

var validate = validator.New()

// RateLimitFilter applies a token bucket per client address.
type RateLimitFilter struct {
	next              *common.RequestHandler
	Name              string  `validate:"required"`
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`

	mu       sync.Mutex
	limiters *cache.Cache
}

// NewRateLimitFilter forgets a client once its bucket would have refilled completely.
func NewRateLimitFilter(name string, requestsPerSecond float64, burst int) *RateLimitFilter {
	idle := minimumLimiterIdle
	if requestsPerSecond > 0 {
		if refill := time.Duration(float64(burst) / requestsPerSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return newRateLimitFilter(name, requestsPerSecond, burst, idle)
}

func newRateLimitFilter(name string, requestsPerSecond float64, burst int, idle time.Duration) *RateLimitFilter {
	filter := &RateLimitFilter{
		Name:              name,
		RequestsPerSecond: requestsPerSecond,
		Burst:             burst,
		limiters:          cache.New(idle, idle),
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *RateLimitFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *RateLimitFilter) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	key := clientKey(request)
	if !filter.limiter(key).Allow() {
		log.Warnf("Rate limit exceeded for %v", key)
		writer.Header().Set("Retry-After", strconv.Itoa(1))
		common.WriteMessage(log, writer, http.StatusTooManyRequests, TooManyRequestsMessage)
		return
	}
	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("Rate limit filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *RateLimitFilter) limiter(key string) *rate.Limiter {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	limiter, found := filter.limiters.Get(key)
	if !found {
		limiter = rate.NewLimiter(rate.Limit(filter.RequestsPerSecond), filter.Burst)
	}
	// every request extends the idle deadline
	filter.limiters.SetDefault(key, limiter)
	return limiter.(*rate.Limiter)
}

func clientKey(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
