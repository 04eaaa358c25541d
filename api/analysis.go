package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanpulse/resilience-api/store"
)

// Upper bound for one full analysis run, fetch through persistence.
const analysisTimeout = 10 * time.Minute

func (s *Server) triggerAnalysis(c *gin.Context) {
	analysisID := uuid.New().String()

	s.mu.Lock()
	s.running[analysisID] = true
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		defer func() {
			s.mu.Lock()
			delete(s.running, analysisID)
			s.mu.Unlock()
		}()

		if _, err := s.runner.Run(ctx, analysisID); err != nil {
			log.WithError(err).WithField("analysis_id", analysisID).Error("analysis run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"analysis_id": analysisID,
		"status":      "running",
	})
}

func (s *Server) analysisStatus(c *gin.Context) {
	analysisID := c.Param("analysisID")

	s.mu.Lock()
	inFlight := s.running[analysisID]
	s.mu.Unlock()

	if inFlight {
		c.JSON(http.StatusOK, gin.H{
			"analysis_id": analysisID,
			"status":      "running",
		})
		return
	}

	report, err := s.store.GetReport(analysisID)
	if errors.Is(err, store.ErrReportNotFound) {
		abortWithEncoding(c, http.StatusNotFound, errorAnalysisNotFound)
		return
	}
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis_id": analysisID,
		"status":      "completed",
		"report":      report,
	})
}
