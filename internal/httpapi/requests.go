package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vk/patchbay/internal/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	errBadRequest = errors.New("malformed request")
	errInvalid    = errors.New("invalid request")
)

type decodeFunc func(data json.RawMessage) (core.Request, error)

var decoders = map[string]decodeFunc{
	core.CreateNode{}.Kind():      decodeAs[core.CreateNode],
	core.DeleteNode{}.Kind():      decodeAs[core.DeleteNode],
	core.ConnectIO{}.Kind():       decodeAs[core.ConnectIO],
	core.DisconnectIO{}.Kind():    decodeAs[core.DisconnectIO],
	core.SetDefaultValue{}.Kind(): decodeAs[core.SetDefaultValue],
	core.SetNodePosition{}.Kind(): decodeAs[core.SetNodePosition],
	core.GetPackages{}.Kind():     decodeAs[core.GetPackages],
	core.GetProject{}.Kind():      decodeAs[core.GetProject],
	core.Reset{}.Kind():           decodeAs[core.Reset],
	core.CreateGraph{}.Kind():     decodeAs[core.CreateGraph],
	core.RenameGraph{}.Kind():     decodeAs[core.RenameGraph],
	core.DeleteGraph{}.Kind():     decodeAs[core.DeleteGraph],
}

func decodeRequest(kind string, data json.RawMessage) (core.Request, error) {
	decode, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownRequest, kind)
	}
	return decode(data)
}

func decodeAs[R core.Request](data json.RawMessage) (core.Request, error) {
	var req R
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errBadRequest, req.Kind(), err)
		}
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return req, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", errInvalid, strings.Join(msgs, "; "))
}
