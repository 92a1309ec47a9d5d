package mocks

import (
	"context"
	"net"
	"sync"

	otlpcollector "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
)

// MockTracingServer is an OTLP trace collector that counts the spans it receives.
type MockTracingServer struct {
	otlpcollector.UnimplementedTraceServiceServer

	server   *grpc.Server
	listener net.Listener

	mu        sync.Mutex
	spanCount int
}

var _ otlpcollector.TraceServiceServer = (*MockTracingServer)(nil)

func (s *MockTracingServer) Export(_ context.Context, req *otlpcollector.ExportTraceServiceRequest) (*otlpcollector.ExportTraceServiceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			s.spanCount += len(ss.GetSpans())
		}
	}
	return &otlpcollector.ExportTraceServiceResponse{}, nil
}

// NewMockTracingServer starts a collector on a free local port.
func NewMockTracingServer() (*MockTracingServer, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &MockTracingServer{server: grpc.NewServer(), listener: lis}
	otlpcollector.RegisterTraceServiceServer(s.server, s)
	go func() {
		_ = s.server.Serve(lis)
	}()
	return s, nil
}

func (s *MockTracingServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *MockTracingServer) SpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spanCount
}

func (s *MockTracingServer) Stop() {
	s.server.Stop()
}
