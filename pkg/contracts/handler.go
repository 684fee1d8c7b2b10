package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Closer is released during graceful shutdown, after the server stops
// accepting requests.
type Closer interface {
	Close() error
}
