// Package collector turns route sheets into fetch tasks and runs them over
// a pool of credential-bound workers, pacing requests per vehicle.
package collector

import (
	"strings"

	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/tms"
)

// ExtractTasks flattens route sheets into fetch tasks. A sheet without a
// parseable, non-empty planned window is skipped whole. Vehicle references
// without a monitoring id are skipped; when vehicleClass is non-empty only
// vehicles whose name contains it (case-insensitive) are kept.
func ExtractTasks(sheets []tms.RouteSheet, vehicleClass string) []models.FetchTask {
	class := strings.ToLower(vehicleClass)

	var tasks []models.FetchTask
	for _, sheet := range sheets {
		start, errStart := models.ParseDateTime(sheet.DateOutPlan)
		end, errEnd := models.ParseDateTime(sheet.DateInPlan)
		if errStart != nil || errEnd != nil || !start.Before(end) {
			zap.S().Debugw("skipping sheet without usable planned window",
				"sheet", sheet.Ref(), "dateOutPlan", sheet.DateOutPlan, "dateInPlan", sheet.DateInPlan)
			continue
		}

		for _, v := range sheet.Vehicles {
			if v.IDMO == 0 {
				continue
			}
			if class != "" && !strings.Contains(strings.ToLower(v.NameMO), class) {
				continue
			}
			tasks = append(tasks, models.FetchTask{
				SheetRef:    sheet.Ref(),
				VehicleID:   v.IDMO,
				VehicleName: v.NameMO,
				RegNumber:   v.RegNumber,
				WindowStart: start,
				WindowEnd:   end,
			})
		}
	}
	return tasks
}

// Interleave reorders tasks so consecutive tasks reference distinct vehicles
// wherever the mix allows, spreading each vehicle's tasks apart to minimize
// cooldown waits. Tasks of the same vehicle keep their relative order;
// vehicle groups rotate in first-appearance order.
func Interleave(tasks []models.FetchTask) []models.FetchTask {
	if len(tasks) == 0 {
		return tasks
	}

	groups := make(map[int64][]models.FetchTask)
	var order []int64
	for _, t := range tasks {
		if _, seen := groups[t.VehicleID]; !seen {
			order = append(order, t.VehicleID)
		}
		groups[t.VehicleID] = append(groups[t.VehicleID], t)
	}

	out := make([]models.FetchTask, 0, len(tasks))
	for len(out) < len(tasks) {
		for _, id := range order {
			if g := groups[id]; len(g) > 0 {
				out = append(out, g[0])
				groups[id] = g[1:]
			}
		}
	}
	return out
}
