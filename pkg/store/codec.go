package store

import (
	"encoding/json"
	"errors"

	"github.com/cuemby/strata/pkg/blob"
	"github.com/cuemby/strata/pkg/crdt"
)

func jsonMarshal(doc crdt.Document) ([]byte, error) {
	return json.Marshal(doc)
}

func jsonUnmarshal(data []byte, doc *crdt.Document) error {
	return json.Unmarshal(data, doc)
}

func isAbsent(err error) bool {
	return errors.Is(err, blob.ErrNotFound)
}
