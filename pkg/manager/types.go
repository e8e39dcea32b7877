// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"errors"

	"github.com/loopholelabs/polyglot/v2"
)

var (
	DecodeErr = errors.New("unable to decode buffer")
)

// CompletionStatus is the server manager's verdict for a machine state
// query.
type CompletionStatus uint32

const (
	CompletionStatusAccepted CompletionStatus = iota
	CompletionStatusRejected
	CompletionStatusException
	CompletionStatusMachineHalted
	CompletionStatusCycleLimitExceeded
	CompletionStatusTimeLimitExceeded
	CompletionStatusPayloadLengthLimitExceeded
)

func (s CompletionStatus) String() string {
	switch s {
	case CompletionStatusAccepted:
		return "Accepted"
	case CompletionStatusRejected:
		return "Rejected"
	case CompletionStatusException:
		return "Exception"
	case CompletionStatusMachineHalted:
		return "MachineHalted"
	case CompletionStatusCycleLimitExceeded:
		return "CycleLimitExceeded"
	case CompletionStatusTimeLimitExceeded:
		return "TimeLimitExceeded"
	case CompletionStatusPayloadLengthLimitExceeded:
		return "PayloadLengthLimitExceeded"
	default:
		return "Unknown"
	}
}

// Report is an opaque piece of machine output. Its payload is forwarded
// unmodified.
type Report struct {
	Payload []byte
}

type InspectStateRequest struct {
	SessionID    string
	QueryPayload []byte
}

func (r *InspectStateRequest) Encode(buf *polyglot.Buffer) {
	if r.QueryPayload == nil {
		polyglot.Encoder(buf).String(r.SessionID).Nil()
	} else {
		polyglot.Encoder(buf).String(r.SessionID).Bytes(r.QueryPayload)
	}
}

func (r *InspectStateRequest) Decode(buf []byte) error {
	d := polyglot.Decoder(buf)
	var err error
	r.SessionID, err = d.String()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	if d.Nil() {
		r.QueryPayload = nil
		return nil
	}
	r.QueryPayload, err = d.Bytes(r.QueryPayload)
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	return nil
}

type InspectStateResponse struct {
	SessionID           string
	ActiveEpochIndex    uint64
	ProcessedInputCount uint64
	Status              CompletionStatus
	ExceptionData       []byte
	Reports             []*Report
}

func (r *InspectStateResponse) Encode(buf *polyglot.Buffer) {
	e := polyglot.Encoder(buf).String(r.SessionID).Uint64(r.ActiveEpochIndex).Uint64(r.ProcessedInputCount).Uint32(uint32(r.Status))
	if r.ExceptionData == nil {
		e.Nil()
	} else {
		e.Bytes(r.ExceptionData)
	}
	e.Uint32(uint32(len(r.Reports)))
	for _, report := range r.Reports {
		e.Bytes(report.Payload)
	}
}

func (r *InspectStateResponse) Decode(buf []byte) error {
	d := polyglot.Decoder(buf)
	var err error
	r.SessionID, err = d.String()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	r.ActiveEpochIndex, err = d.Uint64()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	r.ProcessedInputCount, err = d.Uint64()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	var status uint32
	status, err = d.Uint32()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	r.Status = CompletionStatus(status)
	if d.Nil() {
		r.ExceptionData = nil
	} else {
		r.ExceptionData, err = d.Bytes(r.ExceptionData)
		if err != nil {
			return errors.Join(DecodeErr, err)
		}
	}
	var count uint32
	count, err = d.Uint32()
	if err != nil {
		return errors.Join(DecodeErr, err)
	}
	r.Reports = make([]*Report, count)
	for i := range r.Reports {
		report := new(Report)
		report.Payload, err = d.Bytes(nil)
		if err != nil {
			return errors.Join(DecodeErr, err)
		}
		r.Reports[i] = report
	}
	return nil
}
