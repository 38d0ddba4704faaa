// Copyright (c) 2025 BVK Chaitanya

// Package idgen generates deterministic sequences of uuids derived from a
// seed string. Client-order ids generated from the same seed always repeat
// in the same order, so a retried placement reuses the id of the attempt it
// replaces.
package idgen

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/google/uuid"
)

type Generator struct {
	base uuid.UUID

	next uint64
}

func New(seed string, offset uint64) *Generator {
	return &Generator{
		base: uuid.UUID(md5.Sum([]byte(seed))),
		next: offset,
	}
}

func (v *Generator) Offset() uint64 {
	return v.next
}

func (v *Generator) NextID() uuid.UUID {
	var buf [16 + 8]byte
	copy(buf[:16], v.base[:])
	binary.BigEndian.PutUint64(buf[16:], v.next)
	v.next++
	return uuid.UUID(md5.Sum(buf[:]))
}
