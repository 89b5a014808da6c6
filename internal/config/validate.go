package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a trimmed copy of cfg plus the problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Source.URL = strings.TrimSpace(out.Source.URL)
	out.Filters.RemoteKeyword = strings.TrimSpace(out.Filters.RemoteKeyword)
	out.Schedule.Cron = strings.TrimSpace(out.Schedule.Cron)
	out.Store.Backend = strings.ToLower(strings.TrimSpace(out.Store.Backend))
	out.Notify.Email.Mode = strings.ToLower(strings.TrimSpace(out.Notify.Email.Mode))
	out.Notify.Email.To = trimList(out.Notify.Email.To)

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 0..65535 (0 disables the API)")
	}

	if out.Source.URL == "" {
		res.addErr("source.url is required")
	}
	if strings.TrimSpace(out.Source.SectionHeading) == "" {
		res.addErr("source.section_heading is required")
	}
	if out.Source.TimeoutSeconds <= 0 {
		res.addErr("source.timeout_seconds must be > 0")
	}

	if out.Filters.RemoteKeyword == "" {
		res.addWarn("filters.remote_keyword is empty; defaulting to %q", "remote")
		out.Filters.RemoteKeyword = "remote"
	}
	if out.Filters.MaxAgeDays < 0 {
		res.addErr("filters.max_age_days must be >= 0")
	} else if out.Filters.MaxAgeDays > 60 {
		res.addWarn("filters.max_age_days is %d; older postings are usually closed.", out.Filters.MaxAgeDays)
	}

	if out.Schedule.Cron == "" {
		res.addErr("schedule.cron is required")
	} else if _, err := cron.ParseStandard(out.Schedule.Cron); err != nil {
		res.addErr("schedule.cron %q is invalid: %v", out.Schedule.Cron, err)
	}
	if out.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(out.Schedule.Timezone); err != nil {
			res.addErr("schedule.timezone %q is unknown", out.Schedule.Timezone)
		}
	}

	switch out.Store.Backend {
	case "":
		out.Store.Backend = BackendJSON
	case BackendJSON, BackendSQLite:
	default:
		res.addErr("store.backend must be %q or %q", BackendJSON, BackendSQLite)
	}

	// password not required here; it can come from the keychain
	em := out.Notify.Email
	if em.Enabled {
		if strings.TrimSpace(em.SMTPHost) == "" {
			res.addErr("notify.email.smtp_host is required when notify.email.enabled=true")
		}
		if em.SMTPPort <= 0 || em.SMTPPort > 65535 {
			res.addErr("notify.email.smtp_port must be 1..65535 when notify.email.enabled=true")
		}
		if strings.TrimSpace(em.Username) == "" {
			res.addErr("notify.email.username is required when notify.email.enabled=true")
		}
		if strings.TrimSpace(em.From) == "" {
			res.addErr("notify.email.from is required when notify.email.enabled=true")
		}
		if len(em.To) == 0 {
			res.addErr("notify.email.to needs at least one address when notify.email.enabled=true")
		}
	}
	switch em.Mode {
	case "":
		out.Notify.Email.Mode = ModeFiltered
	case ModeFiltered, ModeNew:
	default:
		res.addErr("notify.email.mode must be %q or %q", ModeFiltered, ModeNew)
	}

	if out.Notify.Desktop.StaggerSeconds < 0 {
		res.addErr("notify.desktop.stagger_seconds must be >= 0")
	}
	if out.Notify.Desktop.SummaryThreshold < 0 {
		res.addErr("notify.desktop.summary_threshold must be >= 0")
	}

	tg := out.Notify.Telegram
	if tg.Enabled {
		if strings.TrimSpace(tg.Token) == "" {
			res.addErr("notify.telegram.token is required when notify.telegram.enabled=true")
		}
		if tg.ChatID == 0 {
			res.addErr("notify.telegram.chat_id is required when notify.telegram.enabled=true")
		}
	}

	if !em.Enabled && !out.Notify.Desktop.Enabled && !tg.Enabled {
		res.addWarn("no notification channel enabled; runs will only log results.")
	}

	return out, res
}
