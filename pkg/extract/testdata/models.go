// Package testdata contains types exercised by the shape extractor.
package testdata

import "github.com/tijsvd/fcode/pkg/fcode"

// Status is a small enumeration carried as an integer.
type Status uint8

// User is a record with one of everything.
type User struct {
	ID      int64
	Name    string
	Email   *string
	Status  Status
	Tags    []string
	Scores  map[string]float64
	Avatar  []byte
	Balance fcode.Int128
	secret  string
	Legacy  string `fcode:"-"`
}

// UserID is a transparent wrapper around its inner value.
type UserID struct {
	Value int64 `fcode:"transparent"`
}

// Tombstone has no fields and encodes as unit.
type Tombstone struct{}

// Event is a notification from the audit stream.
//
// fcode:union=Created,Deleted,*UnknownEvent
type Event interface {
	isEvent()
}

// Created is emitted when a user appears.
type Created struct {
	User User
}

func (Created) isEvent() {}

// Deleted is emitted when a user is removed.
type Deleted struct {
	ID int64
}

func (Deleted) isEvent() {}

// UnknownEvent stands in for events this build does not know.
type UnknownEvent struct{}

func (UnknownEvent) isEvent() {}
