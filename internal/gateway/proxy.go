package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ProductService/pkg/kit"
)

const (
	msgProductUnreachable = "Error connecting to Product Service"
	msgProductCreate      = "Error creating product"
)

// NewReverseProxy forwards requests to target with stripPrefix removed from
// the inbound path, e.g. /api/products -> {target}/products.
func NewReverseProxy(target, stripPrefix string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", target)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.URL.Path = path.Join("/", u.Path, strings.TrimPrefix(pr.In.URL.Path, stripPrefix))
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()

			if id := chimw.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(kit.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("upstream request failed",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("upstream", u.Host),
				zap.String("method", r.Method),
				zap.Error(err),
			)
			kit.WriteError(w, r, http.StatusBadGateway, upstreamErrorMessage(r.Method), nil)
		},
	}, nil
}

func upstreamErrorMessage(method string) string {
	if method == http.MethodPost {
		return msgProductCreate
	}
	return msgProductUnreachable
}
