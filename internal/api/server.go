package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	gorillaRPC "github.com/gorilla/rpc"
	gorillaJSON "github.com/gorilla/rpc/json"
	proxyproto "github.com/pires/go-proxyproto"
	"github.com/rs/cors"
)

// Options configures Server construction.
type Options struct {
	Addr          string // host:port to listen on
	CORSEnabled   bool
	ProxyProtocol bool // accept PROXY protocol v1/v2 headers
}

// Server is the HTTP front door over one Service: JSON-RPC 2.0 at
// /rpc, a websocket event feed at /events, gzip-compressed responses,
// and optional CORS/PROXY-protocol handling, generalizing
// node/config.go's HTTPHost/HTTPPort/HTTPSEnabled section.
type Server struct {
	opts Options
	http *http.Server
	hub  *Hub
	ln   net.Listener
}

// New builds a Server around svc. Call ListenAndServe to start it.
func New(opts Options, svc *Service, hub *Hub) (*Server, error) {
	rpcServer := gorillaRPC.NewServer()
	rpcServer.RegisterCodec(gorillaJSON.NewCodec(), "application/json")
	if err := rpcServer.RegisterService(svc, ""); err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle("/rpc", rpcServer).Methods(http.MethodPost)
	router.HandleFunc("/events", hub.ServeWS)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var handler http.Handler = router
	handler = gziphandler.GzipHandler(handler)
	if opts.CORSEnabled {
		handler = cors.Default().Handler(handler)
	}

	return &Server{
		opts: opts,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		hub: hub,
	}, nil
}

// ListenAndServe opens the configured address (wrapping it with a
// PROXY-protocol listener when enabled) and serves until the context
// is cancelled or a fatal error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	if s.opts.ProxyProtocol {
		ln = &proxyproto.Listener{Listener: ln}
	}
	s.ln = ln

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Serve(ln) }()

	select {
	case <-ctx.Done():
		return s.http.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Close immediately tears down the server and its listener.
func (s *Server) Close() error {
	return s.http.Close()
}
