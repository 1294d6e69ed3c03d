// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"math"

	"github.com/calmh/xdr"
)

// Hand written XDR codecs for the wire messages. Field order is the schema;
// changing it breaks wire compatibility. String and list caps are enforced
// when marshalling as well as when unmarshalling, so a message that encodes
// on one end decodes on the other.

const (
	maxStringLen = 8192
	maxListLen   = 1000000
)

func sizeOfString(s string) int {
	return 4 + len(s) + xdr.Padding(len(s))
}

func (o IndexRequest) XDRSize() int {
	s := sizeOfString(o.ClientID) + sizeOfString(o.DocumentPath) + 4
	for term := range o.WordFrequencies {
		s += sizeOfString(term) + 4
	}
	return s
}

func (o IndexRequest) MarshalXDR() ([]byte, error) {
	buf := make([]byte, o.XDRSize())
	m := &xdr.Marshaller{Data: buf}
	if err := o.MarshalXDRInto(m); err != nil {
		return nil, err
	}
	return buf, nil
}

func (o IndexRequest) MarshalXDRInto(m *xdr.Marshaller) error {
	if l := len(o.ClientID); l > maxStringLen {
		return xdr.ElementSizeExceeded("ClientID", l, maxStringLen)
	}
	m.MarshalString(o.ClientID)
	if l := len(o.DocumentPath); l > maxStringLen {
		return xdr.ElementSizeExceeded("DocumentPath", l, maxStringLen)
	}
	m.MarshalString(o.DocumentPath)
	if l := len(o.WordFrequencies); l > maxListLen {
		return xdr.ElementSizeExceeded("WordFrequencies", l, maxListLen)
	}
	m.MarshalUint32(uint32(len(o.WordFrequencies)))
	for term, freq := range o.WordFrequencies {
		if l := len(term); l > maxStringLen {
			return xdr.ElementSizeExceeded("WordFrequencies key", l, maxStringLen)
		}
		m.MarshalString(term)
		m.MarshalUint32(uint32(freq))
	}
	return m.Error
}

func (o *IndexRequest) UnmarshalXDR(bs []byte) error {
	u := &xdr.Unmarshaller{Data: bs}
	return o.UnmarshalXDRFrom(u)
}

func (o *IndexRequest) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	o.ClientID = u.UnmarshalStringMax(maxStringLen)
	o.DocumentPath = u.UnmarshalStringMax(maxStringLen)
	n := int(u.UnmarshalUint32())
	if n > maxListLen {
		return xdr.ElementSizeExceeded("word frequencies", n, maxListLen)
	}
	if u.Error != nil {
		return u.Error
	}
	o.WordFrequencies = make(map[string]int32, n)
	for i := 0; i < n; i++ {
		term := u.UnmarshalStringMax(maxStringLen)
		freq := int32(u.UnmarshalUint32())
		if u.Error != nil {
			return u.Error
		}
		o.WordFrequencies[term] = freq
	}
	return u.Error
}

func (o SearchRequest) XDRSize() int {
	s := 4
	for _, term := range o.Terms {
		s += sizeOfString(term)
	}
	return s
}

func (o SearchRequest) MarshalXDR() ([]byte, error) {
	buf := make([]byte, o.XDRSize())
	m := &xdr.Marshaller{Data: buf}
	if err := o.MarshalXDRInto(m); err != nil {
		return nil, err
	}
	return buf, nil
}

func (o SearchRequest) MarshalXDRInto(m *xdr.Marshaller) error {
	if l := len(o.Terms); l > maxListLen {
		return xdr.ElementSizeExceeded("Terms", l, maxListLen)
	}
	m.MarshalUint32(uint32(len(o.Terms)))
	for _, term := range o.Terms {
		if l := len(term); l > maxStringLen {
			return xdr.ElementSizeExceeded("Terms element", l, maxStringLen)
		}
		m.MarshalString(term)
	}
	return m.Error
}

func (o *SearchRequest) UnmarshalXDR(bs []byte) error {
	u := &xdr.Unmarshaller{Data: bs}
	return o.UnmarshalXDRFrom(u)
}

func (o *SearchRequest) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	n := int(u.UnmarshalUint32())
	if n > maxListLen {
		return xdr.ElementSizeExceeded("terms", n, maxListLen)
	}
	if u.Error != nil {
		return u.Error
	}
	o.Terms = make([]string, n)
	for i := range o.Terms {
		o.Terms[i] = u.UnmarshalStringMax(maxStringLen)
		if u.Error != nil {
			return u.Error
		}
	}
	return u.Error
}

func (o SearchReply) XDRSize() int {
	s := 8 + 4 + 4
	for _, doc := range o.Documents {
		s += doc.XDRSize()
	}
	return s
}

func (o SearchReply) MarshalXDR() ([]byte, error) {
	buf := make([]byte, o.XDRSize())
	m := &xdr.Marshaller{Data: buf}
	if err := o.MarshalXDRInto(m); err != nil {
		return nil, err
	}
	return buf, nil
}

func (o SearchReply) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint64(math.Float64bits(o.ExecutionTime))
	m.MarshalUint32(uint32(o.TotalResults))
	if l := len(o.Documents); l > maxListLen {
		return xdr.ElementSizeExceeded("Documents", l, maxListLen)
	}
	m.MarshalUint32(uint32(len(o.Documents)))
	for i := range o.Documents {
		if err := o.Documents[i].MarshalXDRInto(m); err != nil {
			return err
		}
	}
	return m.Error
}

func (o *SearchReply) UnmarshalXDR(bs []byte) error {
	u := &xdr.Unmarshaller{Data: bs}
	return o.UnmarshalXDRFrom(u)
}

func (o *SearchReply) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	o.ExecutionTime = math.Float64frombits(u.UnmarshalUint64())
	o.TotalResults = int32(u.UnmarshalUint32())
	n := int(u.UnmarshalUint32())
	if n > maxListLen {
		return xdr.ElementSizeExceeded("documents", n, maxListLen)
	}
	if u.Error != nil {
		return u.Error
	}
	o.Documents = make([]ResultDocument, n)
	for i := range o.Documents {
		if err := o.Documents[i].UnmarshalXDRFrom(u); err != nil {
			return err
		}
	}
	return u.Error
}

func (o ResultDocument) XDRSize() int {
	return sizeOfString(o.DocumentPath) + 8 + sizeOfString(o.ClientID)
}

func (o ResultDocument) MarshalXDRInto(m *xdr.Marshaller) error {
	if l := len(o.DocumentPath); l > maxStringLen {
		return xdr.ElementSizeExceeded("DocumentPath", l, maxStringLen)
	}
	m.MarshalString(o.DocumentPath)
	m.MarshalUint64(uint64(o.Frequency))
	if l := len(o.ClientID); l > maxStringLen {
		return xdr.ElementSizeExceeded("ClientID", l, maxStringLen)
	}
	m.MarshalString(o.ClientID)
	return m.Error
}

func (o *ResultDocument) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	o.DocumentPath = u.UnmarshalStringMax(maxStringLen)
	o.Frequency = int64(u.UnmarshalUint64())
	o.ClientID = u.UnmarshalStringMax(maxStringLen)
	return u.Error
}
