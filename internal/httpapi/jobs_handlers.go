package httpapi

import (
	"net/http"
	"strings"
	"time"

	"jobwatch-engine/internal/dedup"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape"
)

type JobsHandler struct {
	Runner Runner
}

// List serves one record set of the last completed run. Before any run it
// answers with an empty list.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	set := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("set")))
	if set == "" {
		set = SetNew
	}

	resp := JobsResponse{Set: set, Jobs: []JobView{}}
	res := h.Runner.Last()

	var records []domain.JobRecord
	switch set {
	case SetAll:
		if res != nil {
			records = res.All
		}
	case SetFiltered:
		if res != nil {
			records = res.Filtered
		}
	case SetNew:
		if res != nil {
			records = res.New
		}
	default:
		WriteError(w, r, http.StatusBadRequest, CodeInvalidSet, "set must be all, filtered or new")
		return
	}

	if res != nil {
		resp.RunID = res.RunID
		resp.FormatDrift = res.FormatDrift
		resp.FinishedAt = res.FinishedAt.Format(time.RFC3339)
	}
	for _, rec := range records {
		resp.Jobs = append(resp.Jobs, JobView{
			JobRecord: rec,
			ApplyURL:  scrape.ApplicationURL(rec.ApplicationRef),
			Identity:  string(dedup.IdentityOf(rec)),
		})
	}
	resp.Count = len(resp.Jobs)
	writeJSON(w, resp)
}
