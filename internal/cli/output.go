package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"campusid/internal/registration/classify"
	"campusid/internal/registration/models"
)

type outcomeOutput struct {
	Redirect string `json:"redirect"`
	UID      string `json:"uid,omitempty"`
	IDToken  string `json:"id_token,omitempty"`
}

type failureOutput struct {
	Kind    string `json:"kind"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportOutcome prints either the outcome or the classified failure. A
// failure is also returned so the process exits non-zero.
func reportOutcome(w io.Writer, out *models.Outcome, err error) error {
	if err != nil {
		f, ok := classify.As(err)
		if !ok {
			return err
		}
		if perr := printJSON(w, failureOutput{Kind: string(f.Kind), Code: string(f.Code), Message: f.Message}); perr != nil {
			return perr
		}
		return fmt.Errorf("%s", f.Message)
	}
	return printJSON(w, outcomeOutput{Redirect: out.Redirect, UID: out.UserID, IDToken: out.IDToken})
}
