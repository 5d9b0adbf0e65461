package wire

import (
	"encoding/base64"
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Decode parses one raw inbound message and dispatches on its type field.
// Every failure is classified against pkg/exception; the caller drops the
// message and keeps the channel alive.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(exception.ErrUnparseableMessage, err.Error())
	}

	switch Kind(env.Type) {
	case KindFrame:
		return decodeFrame(raw)
	case KindDetections:
		return decodeDetections(raw)
	case KindError:
		var msg errorEnvelope
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, errors.Wrap(exception.ErrUnparseableMessage, err.Error())
		}
		return ErrorMessage{Message: msg.Message}, nil
	default:
		return nil, errors.Wrap(exception.ErrUnknownMessageType, env.Type)
	}
}

func decodeFrame(raw []byte) (Message, error) {
	var msg frameEnvelope
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, errors.Wrap(exception.ErrUnparseableMessage, err.Error())
	}
	if len(msg.Data) == 0 {
		return nil, exception.ErrEmptyPayload
	}
	if base64.StdEncoding.DecodedLen(len(msg.Data)) > MaxFramePayload {
		return nil, errors.Wrap(exception.ErrPayloadTooLarge, "base64 length").
			With("encoded_len", len(msg.Data))
	}

	payload, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return nil, errors.Wrap(exception.ErrUnparseableMessage, err.Error())
	}
	if len(payload) == 0 {
		return nil, exception.ErrEmptyPayload
	}
	if len(payload) > MaxFramePayload {
		return nil, errors.Wrap(exception.ErrPayloadTooLarge, "decoded length").
			With("decoded_len", len(payload))
	}
	return FrameMessage{Payload: payload}, nil
}

type detectionsEnvelope struct {
	Type       string            `json:"type"`
	Detections []json.RawMessage `json:"detections"`
}

func decodeDetections(raw []byte) (Message, error) {
	var msg detectionsEnvelope
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, errors.Wrap(exception.ErrUnparseableMessage, err.Error())
	}

	out := DetectionsMessage{Detections: make([]model.Detection, 0, len(msg.Detections))}
	for _, entry := range msg.Detections {
		var det model.Detection
		if err := sonic.Unmarshal(entry, &det); err != nil {
			out.Dropped++
			continue
		}
		if !det.Valid() {
			out.Dropped++
			continue
		}
		out.Detections = append(out.Detections, det)
	}
	return out, nil
}

// EncodeSetMode builds the client-to-server mode selection message sent once
// when the detections channel opens.
func EncodeSetMode(mode enum.Mode) ([]byte, error) {
	payload, err := sonic.Marshal(setModeEnvelope{
		Type: string(KindSetMode),
		Mode: mode.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal set_mode")
	}
	return payload, nil
}
