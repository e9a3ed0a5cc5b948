// Package server 通过 HTTP 与 websocket 提供只读的模拟遥测
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crossroadSim/log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

// Server 遥测服务
type Server struct {
	addr     string
	hub      *Hub
	router   *gin.Engine
	upgrader websocket.Upgrader
	started  time.Time
}

// New 创建遥测服务
func New(addr string, hub *Hub) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		addr: addr,
		hub:  hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		started: time.Now(),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.Default())
	router.GET("/healthz", s.health)
	router.GET("/snapshot", s.snapshot)
	router.GET("/status", s.status)
	router.GET("/ws", s.serveWs)
	s.router = router
	return s
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 监听并服务，ctx 取消时优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": s.addr}).Info("telemetry server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.started).Seconds(),
		"clients": s.hub.Clients(),
	})
}

func (s *Server) snapshot(c *gin.Context) {
	frame, ok := s.hub.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, frame)
}

func (s *Server) status(c *gin.Context) {
	frame, ok := s.hub.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, frame.Status)
}

func (s *Server) serveWs(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debugf("websocket upgrade: %v", err)
		return
	}

	cl, ok := s.hub.register(conn)
	if !ok {
		conn.Close()
		return
	}
	go cl.writePump()
	cl.readPump()
	s.hub.unregister(cl)
}

// requestLogger 用 logrus 记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}
