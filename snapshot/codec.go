package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes a batch as msgpack for binary transports
func Marshal(b Batch) ([]byte, error) {
	data, err := msgpack.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot batch %d: %w", b.Tick, err)
	}
	return data, nil
}

// Unmarshal decodes a msgpack batch
func Unmarshal(data []byte) (Batch, error) {
	var b Batch
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("decode snapshot batch: %w", err)
	}
	return b, nil
}
