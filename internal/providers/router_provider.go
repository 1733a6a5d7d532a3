package providers

import (
	"net/http"
	"pickme/internal/structures"
)

// RouterProviderInterface collects the read-only status routes.
type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes []structures.Route
	seen   map[string]struct{}
}

// Get registers a read route that also answers HEAD. Registering the same
// url twice keeps the first handler.
func (rp *RouterProvider) Get(url string, handler http.Handler) {
	if _, dup := rp.seen[url]; dup {
		return
	}
	rp.seen[url] = struct{}{}
	rp.routes = append(rp.routes, structures.Route{
		Url:     url,
		Handler: readOnly(handler),
	})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{seen: make(map[string]struct{})}
}

func readOnly(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
