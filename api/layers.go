package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/urbanpulse/resilience-api/schema"
	"github.com/urbanpulse/resilience-api/store"
)

var knownDomains = map[string]bool{
	schema.DomainAirQuality: true,
	schema.DomainHeat:       true,
	schema.DomainFlood:      true,
	schema.DomainHealthcare: true,
	schema.DomainGreenSpace: true,
}

func (s *Server) currentScore(c *gin.Context) {
	score, err := s.store.LatestScore(s.region.Name)
	if errors.Is(err, store.ErrScoreNotFound) {
		abortWithEncoding(c, http.StatusNotFound, errorScoreNotFound)
		return
	}
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"region": s.region.Name,
		"score":  score,
	})
}

// resolveAnalysisID returns the analysis_id query value, falling back to the
// region's latest completed run.
func (s *Server) resolveAnalysisID(c *gin.Context) (string, bool) {
	if id := c.Query("analysis_id"); id != "" {
		return id, true
	}

	report, err := s.store.LatestReport(s.region.Name)
	if errors.Is(err, store.ErrReportNotFound) {
		abortWithEncoding(c, http.StatusNotFound, errorAnalysisNotFound)
		return "", false
	}
	if shouldInterupt(err, c) {
		return "", false
	}
	return report.ID, true
}

func (s *Server) domainLayer(c *gin.Context) {
	domain := c.Param("domain")
	if !knownDomains[domain] {
		abortWithEncoding(c, http.StatusBadRequest, errorUnknownDomain)
		return
	}

	analysisID, ok := s.resolveAnalysisID(c)
	if !ok {
		return
	}

	hotspots, err := s.store.ListHotspots(analysisID, domain)
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis_id": analysisID,
		"domain":      domain,
		"hotspots":    hotspots,
	})
}

func (s *Server) listRecommendations(c *gin.Context) {
	areaNumber := 0
	if raw := c.Query("area"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
			return
		}
		areaNumber = parsed
	}

	analysisID, ok := s.resolveAnalysisID(c)
	if !ok {
		return
	}

	recommendations, err := s.store.ListRecommendations(analysisID, areaNumber)
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis_id":     analysisID,
		"recommendations": recommendations,
	})
}
