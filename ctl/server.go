// Copyright (c) 2025 BVK Chaitanya

package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/bvk/algobot/algoreg"
)

// Server serves the control API for one registry.
type Server struct {
	reg *algoreg.Registry

	sockPath string

	server *http.Server

	wg sync.WaitGroup
}

// Listen starts the control server on a unix socket at the given path. A
// stale socket left behind by a dead process is removed; the data directory
// lock guarantees no live owner exists.
func Listen(sockPath string, reg *algoreg.Registry) (*Server, error) {
	if err := os.Remove(sockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	l, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		reg:      reg,
		sockPath: sockPath,
	}
	mux := http.NewServeMux()
	mux.Handle(CancelPath, jsonHandler(s.doCancel))
	mux.Handle(ListPath, jsonHandler(s.doList))
	s.server = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("control server on %q has failed: %v", sockPath, err)
		}
	}()
	return s, nil
}

func (s *Server) Close() {
	_ = s.server.Close()
	s.wg.Wait()
	_ = os.Remove(s.sockPath)
}

func (s *Server) doCancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error) {
	if req.ID != "" {
		if err := s.reg.Cancel(ctx, req.ID); err != nil {
			return nil, err
		}
		return &CancelResponse{IDs: []string{req.ID}}, nil
	}
	ids, err := s.reg.CancelTag(ctx, req.Session, req.Tag)
	if err != nil {
		return nil, err
	}
	return &CancelResponse{IDs: ids}, nil
}

func (s *Server) doList(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	records, err := s.reg.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Records: records}, nil
}

func jsonHandler[REQ, RESP any](fn func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(REQ)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("could not encode control response (ignored): %v", err)
		}
	})
}
