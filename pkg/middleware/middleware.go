package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type Middleware func(http.Handler) http.Handler

// Chain applies middleware so that the first one listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Handle wraps a single route. Nil middleware is skipped.
func Handle(h httprouter.Handle, mws ...Middleware) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, ps)
		})
		Chain(inner, mws...).ServeHTTP(w, r)
	}
}
