package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type dutyHistoryRow struct {
	PersonID        uuid.UUID `json:"person_id"`
	DisplayName     string    `json:"display_name"`
	Rank            string    `json:"rank"`
	CQShifts        int       `json:"cq_shifts"`
	DetailsVerified int       `json:"details_verified"`
	SwapsRequested  int       `json:"swaps_requested"`
}

// DutyHistoryReport summarizes duty load per soldier over a date range, for
// spotting uneven rotation before the next schedule is cut.
func (e *Env) DutyHistoryReport(c *gin.Context) {
	db, ok := e.companyDB(c)
	if !ok {
		return
	}

	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end query parameters are required"})
		return
	}

	// shift1/shift2 slots live in JSONB; each held slot counts one shift
	query := `
		SELECT p.id, p.display_name, p.rank,
			(
				SELECT COUNT(*)
				FROM cq_schedule s
				WHERE s.date >= $1 AND s.date <= $2
				  AND (
					(s.shift1->'slot1'->>'person_id')::uuid = p.id OR
					(s.shift1->'slot2'->>'person_id')::uuid = p.id OR
					(s.shift2->'slot1'->>'person_id')::uuid = p.id OR
					(s.shift2->'slot2'->>'person_id')::uuid = p.id
				  )
			) AS cq_shifts,
			(
				SELECT COUNT(*)
				FROM detail_assignments da
				WHERE da.assigned_to = p.id AND da.status = 'verified'
				  AND da.created_at >= $1::date AND da.created_at < ($2::date + 1)
			) AS details_verified,
			(
				SELECT COUNT(*)
				FROM cq_swap_requests sr
				WHERE sr.requester_id = p.id
				  AND sr.schedule_date >= $1 AND sr.schedule_date <= $2
			) AS swaps_requested
		FROM personnel p
		WHERE p.is_active = true
		ORDER BY cq_shifts DESC, p.last_name
	`

	rows, err := db.Query(c.Request.Context(), query, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build duty history report"})
		return
	}
	defer rows.Close()

	report := []dutyHistoryRow{}
	for rows.Next() {
		var r dutyHistoryRow
		if err := rows.Scan(&r.PersonID, &r.DisplayName, &r.Rank, &r.CQShifts, &r.DetailsVerified, &r.SwapsRequested); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse report row"})
			return
		}
		report = append(report, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"start":  start,
		"end":    end,
		"report": report,
	})
}
