package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/engine"
)

// Server is the host API surface named in the external interfaces: a
// query/command HTTP API plus a websocket event stream, grounded on
// tarsy's pkg/api handlers.go (gin *gin.Context handlers returning
// gin.H/JSON) adapted from session management to world/agent/tick
// queries and engine commands.
type Server struct {
	engine *engine.Engine
	runner *engine.Runner
	hub    *WSHub
	logger *slog.Logger

	router *gin.Engine
}

// NewServer wires handlers against e/r and registers e's tick callback
// with hub so every completed tick is broadcast to subscribers.
func NewServer(e *engine.Engine, r *engine.Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: e,
		runner: r,
		hub:    NewWSHub(logger),
		logger: logger,
	}

	e.OnTick(func(tc domain.TickContext) {
		s.hub.Broadcast("tick.complete", tc.Tick, tc)
		for name, result := range tc.TurnResults {
			if result.Narrative == "" {
				continue
			}
			s.hub.Broadcast("agent.turn_end", tc.Tick, gin.H{
				"agent":       name,
				"narrative":   result.Narrative,
				"actions":     result.ActionsTaken,
				"token_usage": result.TokenUsage,
			})
		}
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.router = router
	s.registerRoutes()

	return s
}

// Run starts the websocket hub and serves HTTP on addr. Blocks until
// the listener returns an error (including on graceful shutdown of the
// underlying http.Server, which callers manage separately if needed).
func (s *Server) Run(addr string) error {
	go s.hub.Run()
	return s.router.Run(addr)
}

// Handler exposes the underlying http.Handler, for callers that want to
// embed the API in their own http.Server (e.g. for graceful shutdown).
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")

	v1.GET("/status", s.handleStatus)
	v1.GET("/agents", s.handleListAgents)
	v1.GET("/agents/:name", s.handleGetAgent)
	v1.GET("/cells", s.handleGetCells)
	v1.GET("/objects", s.handleGetObjects)
	v1.GET("/places/:name", s.handleGetPlace)
	v1.GET("/conversations", s.handleListConversations)

	v1.POST("/commands/tick", s.handleTickOnce)
	v1.POST("/commands/run", s.handleRun)
	v1.POST("/commands/pause", s.handlePause)
	v1.POST("/commands/resume", s.handleResume)
	v1.POST("/commands/stop", s.handleStop)
	v1.POST("/commands/force-next/:name", s.handleForceNext)
	v1.POST("/commands/manual-event", s.handleManualEvent)
	v1.POST("/commands/weather", s.handleChangeWeather)
	v1.POST("/commands/dream/:name", s.handleDream)

	v1.GET("/ws", s.handleWS)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus answers the current tick, time of day, weather, and
// world dimensions in one call, matching the CLI's --status summary.
func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	tick, err := s.engine.World.CurrentTick(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	weather, err := s.engine.World.CurrentWeather(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	width, height, err := s.engine.World.WorldDimensions(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tick":        tick,
		"time_of_day": domain.TimeOfDayForTick(tick),
		"weather":     weather.String(),
		"width":       width,
		"height":      height,
		"running":     s.runner.IsRunning(),
	})
}

func (s *Server) handleListAgents(c *gin.Context) {
	agents, err := s.engine.Agents.GetAllAgents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (s *Server) handleGetAgent(c *gin.Context) {
	name := domain.AgentName(c.Param("name"))
	agent, err := s.engine.Agents.GetAgent(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, agent)
}

// handleGetCells answers a rectangular slice of the grid around
// (x,y)+radius, or the whole grid when no center is given.
func (s *Server) handleGetCells(c *gin.Context) {
	ctx := c.Request.Context()
	rect, ok := s.parseRect(c)
	if !ok {
		return
	}
	cells, err := s.engine.World.GetCellsInRect(ctx, rect)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cells)
}

func (s *Server) handleGetObjects(c *gin.Context) {
	ctx := c.Request.Context()
	rect, ok := s.parseRect(c)
	if !ok {
		return
	}
	objects, err := s.engine.World.GetObjectsInRect(ctx, rect)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, objects)
}

// parseRect builds a Rect from x/y/radius query params, defaulting to
// the full world when they're absent.
func (s *Server) parseRect(c *gin.Context) (domain.Rect, bool) {
	ctx := c.Request.Context()
	width, height, err := s.engine.World.WorldDimensions(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return domain.Rect{}, false
	}
	full := domain.Rect{MinX: 0, MinY: 0, MaxX: width - 1, MaxY: height - 1}

	xStr, yStr := c.Query("x"), c.Query("y")
	if xStr == "" || yStr == "" {
		return full, true
	}
	x, err1 := strconv.Atoi(xStr)
	y, err2 := strconv.Atoi(yStr)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y must be integers"})
		return domain.Rect{}, false
	}
	rStr := c.DefaultQuery("radius", "8")
	r, err := strconv.Atoi(rStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be an integer"})
		return domain.Rect{}, false
	}
	return domain.RectAround(domain.Position{X: x, Y: y}, r).Clamp(width, height), true
}

func (s *Server) handleGetPlace(c *gin.Context) {
	pos, err := s.engine.World.GetPlacePosition(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) handleListConversations(c *gin.Context) {
	convs, err := s.engine.Conversation.GetAllActiveConversations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (s *Server) handleTickOnce(c *gin.Context) {
	s.runner.TickOnce()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (s *Server) handleRun(c *gin.Context) {
	s.runner.Run()
	c.JSON(http.StatusAccepted, gin.H{"status": "running"})
}

func (s *Server) handlePause(c *gin.Context) {
	s.runner.Pause()
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (s *Server) handleResume(c *gin.Context) {
	s.runner.Resume()
	c.JSON(http.StatusOK, gin.H{"status": "resumed"})
}

func (s *Server) handleStop(c *gin.Context) {
	s.runner.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (s *Server) handleForceNext(c *gin.Context) {
	s.engine.ForceNext(domain.AgentName(c.Param("name")))
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

type manualEventRequest struct {
	Description string `json:"description" binding:"required"`
}

func (s *Server) handleManualEvent(c *gin.Context) {
	var req manualEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.EmitManualEvent(c.Request.Context(), req.Description); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleChangeWeather(c *gin.Context) {
	if err := s.engine.ChangeWeather(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "changed"})
}

type dreamRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleDream(c *gin.Context) {
	var req dreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.engine.QueueDream(domain.AgentName(c.Param("name")), req.Text)
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

func (s *Server) handleWS(c *gin.Context) {
	s.hub.HandleWS(c.Writer, c.Request)
}
