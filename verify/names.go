// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package verify

import (
	"encoding/asn1"
	"strings"
)

// attribute describes a well known subject attribute.
type attribute struct {
	short   string
	long    string
	oid     asn1.ObjectIdentifier
	aliases []string
}

var attributes = []attribute{
	{short: "CN", long: "commonName", oid: asn1.ObjectIdentifier{2, 5, 4, 3}},
	{short: "SN", long: "surname", oid: asn1.ObjectIdentifier{2, 5, 4, 4}},
	{short: "serialNumber", long: "serialNumber", oid: asn1.ObjectIdentifier{2, 5, 4, 5}},
	{short: "C", long: "countryName", oid: asn1.ObjectIdentifier{2, 5, 4, 6}},
	{short: "L", long: "localityName", oid: asn1.ObjectIdentifier{2, 5, 4, 7}},
	{short: "ST", long: "stateOrProvinceName", oid: asn1.ObjectIdentifier{2, 5, 4, 8}, aliases: []string{"S"}},
	{short: "street", long: "streetAddress", oid: asn1.ObjectIdentifier{2, 5, 4, 9}},
	{short: "O", long: "organizationName", oid: asn1.ObjectIdentifier{2, 5, 4, 10}},
	{short: "OU", long: "organizationalUnitName", oid: asn1.ObjectIdentifier{2, 5, 4, 11}},
	{short: "title", long: "title", oid: asn1.ObjectIdentifier{2, 5, 4, 12}},
	{short: "postalCode", long: "postalCode", oid: asn1.ObjectIdentifier{2, 5, 4, 17}},
	{short: "GN", long: "givenName", oid: asn1.ObjectIdentifier{2, 5, 4, 42}},
	{short: "emailAddress", long: "emailAddress", oid: asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}, aliases: []string{"E"}},
	{short: "UID", long: "userId", oid: asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}},
	{short: "DC", long: "domainComponent", oid: asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}},
}

var (
	byOID  = make(map[string]string, len(attributes))
	byName = make(map[string]string, len(attributes)*3)
)

func init() {
	for _, attr := range attributes {
		byOID[attr.oid.String()] = attr.short
		byName[strings.ToLower(attr.short)] = attr.short
		byName[strings.ToLower(attr.long)] = attr.short
		byName[attr.oid.String()] = attr.short
		for _, alias := range attr.aliases {
			byName[strings.ToLower(alias)] = attr.short
		}
	}
}

// CanonicalName returns the name under which a subject attribute is keyed
// in Fields. Short names, long names and dotted OIDs of well known
// attributes all map to the short name, case-insensitively: "O",
// "organizationName" and "2.5.4.10" all return "O". Unknown names are
// returned trimmed but otherwise unchanged.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if short, ok := byName[strings.ToLower(name)]; ok {
		return short
	}
	return name
}

func nameForOID(oid asn1.ObjectIdentifier) string {
	key := oid.String()
	if short, ok := byOID[key]; ok {
		return short
	}
	return key
}
