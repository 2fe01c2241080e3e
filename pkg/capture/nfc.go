package capture

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"

	"wallet_core/models"
)

const (
	ndefUTF16Flag  = 0x80
	ndefLangLenMax = 0x3f
)

// parseNFC accepts either the bare JSON document or an NDEF text record
// (status byte, language code, text) wrapping it.
func parseNFC(data []byte) (payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return payload{}, errors.Wrap(models.ErrMalformedPayload, "empty tag")
	}
	if data[0] == '{' {
		return parseJSON(data)
	}

	text, err := ndefText(data)
	if err != nil {
		return payload{}, err
	}
	return parseJSON(text)
}

func ndefText(record []byte) ([]byte, error) {
	status := record[0]
	if status&ndefUTF16Flag != 0 {
		return nil, errors.Wrap(models.ErrMalformedPayload, "UTF-16 text records are not supported")
	}
	langLen := int(status & ndefLangLenMax)
	if len(record) < 1+langLen+1 {
		return nil, errors.Wrap(models.ErrMalformedPayload, "truncated NDEF text record")
	}
	text := record[1+langLen:]
	if !utf8.Valid(text) {
		return nil, errors.Wrap(models.ErrMalformedPayload, "NDEF text is not valid UTF-8")
	}
	return text, nil
}
