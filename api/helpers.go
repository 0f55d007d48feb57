package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vocdoni/tallycore/log"
	"github.com/vocdoni/tallycore/types"
)

// parseElectionID extracts and parses the electionId path parameter.
func parseElectionID(r *http.Request) (types.ElectionID, error) {
	return types.ElectionIDFromString(chi.URLParam(r, ElectionIDParam))
}

// parseTrusteeIndex extracts and parses the trusteeIndex path parameter.
func parseTrusteeIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, TrusteeIndexParam))
}

// decodeHexDigest decodes a lowercase hex-encoded SHA-256 digest, such as
// the one stored in ElectionResult.VerificationHash, into dst.
func decodeHexDigest(s string, dst *[32]byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(dst[:], b)
	return nil
}

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}
