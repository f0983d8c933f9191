package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardtable-online/internal/server"
	"cardtable-online/internal/store"
)

// pickStore selects the user store from the environment: Postgres when
// DATABASE_URL is set, otherwise Redis when REDIS_ADDR is set, otherwise
// memory. A backend that fails to connect falls back to memory so the server
// still comes up.
func pickStore() store.UserStore {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		st, err := store.NewPostgresStore(dsn)
		if err != nil {
			log.Printf("Failed to connect to Postgres, using memory store: %v", err)
			return store.NewMemoryStore()
		}
		log.Println("Connected to Postgres")
		return st
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		st, err := store.NewRedisStore(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("Failed to connect to Redis, using memory store: %v", err)
			return store.NewMemoryStore()
		}
		log.Printf("Connected to Redis at %s", redisAddr)
		return st
	}

	log.Println("No store configured, using memory store")
	return store.NewMemoryStore()
}

func main() {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "0.0.0.0:7998"
	}

	st := pickStore()
	defer st.Close()

	srv, err := server.New(server.Config{
		Addr:  addr,
		Store: st,
	})
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	httpServer := &http.Server{
		Addr:    srv.Addr(),
		Handler: srv.Handler(),
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
