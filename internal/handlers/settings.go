package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/models"
)

// GetSettings returns all company settings with defaults merged in
func (e *Env) GetSettings(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	settings, err := database.NewSettings(db).GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSetting upserts one typed setting row
func (e *Env) UpdateSetting(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	key := c.Param("key")
	var req models.SettingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	dataType, value, err := encodeSettingValue(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.NewSettings(db).Set(c.Request.Context(), key, dataType, value, userID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

// encodeSettingValue infers the stored type tag from the JSON value.
func encodeSettingValue(v interface{}) (dataType, value string, err error) {
	switch t := v.(type) {
	case string:
		return "string", t, nil
	case bool:
		return "bool", fmt.Sprintf("%t", t), nil
	case float64:
		if t == float64(int64(t)) {
			return "int", fmt.Sprintf("%d", int64(t)), nil
		}
		return "float", fmt.Sprintf("%g", t), nil
	case map[string]interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode setting value")
		}
		return "dict", string(raw), nil
	case []interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode setting value")
		}
		return "list", string(raw), nil
	default:
		return "", "", fmt.Errorf("unsupported setting value type")
	}
}
