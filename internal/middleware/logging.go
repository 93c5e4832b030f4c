package middleware

import (
	"net/http"

	"github.com/hvukovic/weightly/pkg"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent := r.Header.Get("User-Agent")
			reqIp, _ := pkg.ReadUserIP(r)
			log.Tracef(" ====> request [%s] path: [%s] [from: %s] [UA: %s]", r.Method, r.URL.Path, reqIp, userAgent)
			next.ServeHTTP(w, r)
		})
	}
}
