// internal/app/system/pass/pass.go
package pass

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventrahq/eventra/internal/app/system/apperr"
)

// Payload is the structured token embedded in an entry-pass QR image.
// The JSON key names are the wire format the scanning client depends
// on; do not rename them.
type Payload struct {
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
	StudentName    string `json:"studentName"`
	Email          string `json:"email"`
	RegisterNumber string `json:"registerNumber,omitempty"`
	EventTitle     string `json:"eventTitle"`
}

// pixel size of the rendered QR image
const qrSize = 256

// Encode serializes the payload to its canonical JSON text. The same
// payload always yields the same text, so re-rendering a pass produces
// an identical image.
func Encode(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode pass payload: %w", err)
	}
	return string(b), nil
}

// Render encodes the payload and draws it as a QR PNG, returned as a
// data URI for direct embedding in the client and the confirmation
// email. The raw JSON text is returned alongside so the caller can
// persist it for later verification.
func Render(p Payload) (dataURI, raw string, err error) {
	raw, err = Encode(p)
	if err != nil {
		return "", "", err
	}
	png, err := qrcode.Encode(raw, qrcode.Medium, qrSize)
	if err != nil {
		return "", "", fmt.Errorf("render pass qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), raw, nil
}

// Decode parses scanned QR text back into a Payload. Anything that is
// not a well-formed payload with valid object ids is rejected as
// malformed; the caller never sees partial payloads.
func Decode(text string) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&p); err != nil {
		return Payload{}, apperr.Wrap(apperr.KindMalformedPass, "scanned code is not a valid entry pass", err)
	}
	if p.RegistrationID == "" || p.EventID == "" {
		return Payload{}, apperr.New(apperr.KindMalformedPass, "scanned code is not a valid entry pass")
	}
	if _, err := primitive.ObjectIDFromHex(p.RegistrationID); err != nil {
		return Payload{}, apperr.New(apperr.KindMalformedPass, "scanned code is not a valid entry pass")
	}
	if _, err := primitive.ObjectIDFromHex(p.EventID); err != nil {
		return Payload{}, apperr.New(apperr.KindMalformedPass, "scanned code is not a valid entry pass")
	}
	return p, nil
}
