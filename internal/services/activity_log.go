package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DF-PROPOSAL/internal/metrics"
	"DF-PROPOSAL/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	maxLoggedBody = 10000
	ownerKey      = "owner_id"
)

// ActivityLogService persists one row per served request and records the
// request metrics.
type ActivityLogService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	async   bool
}

func NewActivityLogService(db *gorm.DB, m *metrics.Metrics) *ActivityLogService {
	return &ActivityLogService{db: db, metrics: m, async: true}
}

type LogStats struct {
	TotalRequests int64            `json:"totalRequests"`
	Methods       map[string]int64 `json:"methods"`
	Paths         map[string]int64 `json:"paths"`
	StatusCodes   map[int]int64    `json:"statusCodes"`
}

// LogRequest stores the request. The path is the matched route pattern, so
// values such as access tokens never reach the table.
func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, exists := c.Get("request_body"); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	now := time.Now().UTC()
	activityLog := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         route,
		OwnerID:      c.GetString(ownerKey),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	save := func() {
		if err := s.db.Create(activityLog).Error; err != nil {
			log.Error().Err(err).Str("path", route).Msg("Failed to save activity log")
		}
	}
	if s.async {
		go save()
	} else {
		save()
	}
}

func (s *ActivityLogService) GetAllLogs(ownerID string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("owner_id = ?", ownerID), limit, offset)
}

func (s *ActivityLogService) GetLogsByMethod(ownerID, method string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("owner_id = ? AND method = ?", ownerID, strings.ToUpper(method)), limit, offset)
}

func (s *ActivityLogService) GetLogsByPath(ownerID, path string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("owner_id = ? AND path LIKE ?", ownerID, "%"+path+"%"), limit, offset)
}

func (s *ActivityLogService) find(query *gorm.DB, limit, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := query.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// Stats aggregates the owner's requests by method, route and status code.
func (s *ActivityLogService) Stats(ownerID string) (*LogStats, error) {
	stats := &LogStats{
		Methods:     map[string]int64{},
		Paths:       map[string]int64{},
		StatusCodes: map[int]int64{},
	}

	type row struct {
		Name  string
		Code  int
		Total int64
	}
	scoped := func() *gorm.DB {
		return s.db.Model(&models.ActivityLog{}).Where("owner_id = ?", ownerID)
	}

	var methods, paths, codes []row
	if err := scoped().Select("method AS name, COUNT(*) AS total").Group("method").Scan(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate logs: %w", err)
	}
	if err := scoped().Select("path AS name, COUNT(*) AS total").Group("path").Scan(&paths).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate logs: %w", err)
	}
	if err := scoped().Select("status_code AS code, COUNT(*) AS total").Group("status_code").Scan(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate logs: %w", err)
	}

	for _, r := range methods {
		stats.Methods[r.Name] = r.Total
		stats.TotalRequests += r.Total
	}
	for _, r := range paths {
		stats.Paths[r.Name] = r.Total
	}
	for _, r := range codes {
		stats.StatusCodes[r.Code] = r.Total
	}
	return stats, nil
}

// LoggingMiddleware logs every request after it is handled. Bodies of
// authenticated writes are kept; public routes never have their body stored.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if captureBody(c) {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

				if len(bodyBytes) > 0 {
					if len(bodyBytes) > maxLoggedBody {
						c.Set("request_body", fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
					} else {
						c.Set("request_body", string(bodyBytes))
					}
				}
			}
		}

		c.Next()

		duration := time.Since(start)
		s.metrics.Request(c.Request.Method, c.FullPath(), c.Writer.Status(), duration)
		s.LogRequest(c, c.Writer.Status(), duration)
	}
}

func captureBody(c *gin.Context) bool {
	if c.Request.Body == nil || strings.HasPrefix(c.FullPath(), "/public") {
		return false
	}
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut:
		return true
	}
	return false
}
