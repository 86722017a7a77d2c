package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/internal/ai"
)

// MandateCheck verifies that the directors' mandate elected in the minutes
// has not expired. The AI only extracts two literal strings (election date
// and duration text); the date parsing and the expiry arithmetic are done
// here, deterministically. Any missing or unparsable piece fails closed.
type MandateCheck struct {
	gen    ai.Generator
	model  string
	now    func() time.Time
	logger *slog.Logger
}

func NewMandateCheck(gen ai.Generator, model string, logger *slog.Logger) *MandateCheck {
	if logger == nil {
		logger = slog.Default()
	}
	return &MandateCheck{gen: gen, model: model, now: time.Now, logger: logger}
}

// MandateVerdict is the outcome of the deterministic mandate validity check.
type MandateVerdict struct {
	Valid         bool
	Justification string
	ElectionDate  time.Time
	ExpiryDate    time.Time
}

var durationDigits = regexp.MustCompile(`\d+`)

// Verify extracts the election date from the minutes and the mandate
// duration from the statute, then checks expiry against the current date.
func (m *MandateCheck) Verify(ctx context.Context, minutesText, statuteText string) MandateVerdict {
	prompt := ai.BuildMandateDatePrompt(minutesText, statuteText)
	raw, err := m.gen.GenerateStructured(ctx, prompt, m.model)
	if err != nil {
		m.logger.Error("mandate.extract_failed", "error", err)
		return MandateVerdict{
			Valid:         false,
			Justification: "could not extract election date and mandate duration: " + err.Error(),
		}
	}

	var got struct {
		ElectionDate    *string `json:"election_date"`
		MandateDuration *string `json:"mandate_duration"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		m.logger.Error("mandate.bad_payload", "error", err)
		return MandateVerdict{Valid: false, Justification: "mandate extraction returned an unusable payload"}
	}
	if got.ElectionDate == nil || strings.TrimSpace(*got.ElectionDate) == "" {
		return MandateVerdict{Valid: false, Justification: "election date not found in the minutes"}
	}
	if got.MandateDuration == nil || strings.TrimSpace(*got.MandateDuration) == "" {
		return MandateVerdict{Valid: false, Justification: "mandate duration not found in the statute"}
	}

	elected, err := ParsePortugueseDate(*got.ElectionDate)
	if err != nil {
		return MandateVerdict{
			Valid:         false,
			Justification: fmt.Sprintf("could not parse election date %q: %v", *got.ElectionDate, err),
		}
	}

	years, ok := firstInteger(*got.MandateDuration)
	if !ok || years <= 0 {
		return MandateVerdict{
			Valid:         false,
			Justification: fmt.Sprintf("could not determine mandate length in years from %q", *got.MandateDuration),
		}
	}

	expiry := elected.AddDate(years, 0, 0)
	verdict := MandateVerdict{ElectionDate: elected, ExpiryDate: expiry}
	if m.now().After(expiry) {
		verdict.Valid = false
		verdict.Justification = fmt.Sprintf(
			"mandate of %d year(s) elected on %s expired on %s",
			years, elected.Format("2006-01-02"), expiry.Format("2006-01-02"))
	} else {
		verdict.Valid = true
		verdict.Justification = fmt.Sprintf(
			"mandate of %d year(s) elected on %s is valid until %s",
			years, elected.Format("2006-01-02"), expiry.Format("2006-01-02"))
	}
	m.logger.Info("mandate.checked",
		"elected", elected.Format("2006-01-02"),
		"expiry", expiry.Format("2006-01-02"),
		"valid", verdict.Valid,
	)
	return verdict
}

// firstInteger pulls the first run of digits out of a free-form duration
// string ("4 (quatro) anos" -> 4). No digits means no answer.
func firstInteger(s string) (int, bool) {
	match := durationDigits.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
