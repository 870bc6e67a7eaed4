/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package resource carries the Resource Descriptor: the immutable
// (group, version, plural, finalizer) tuple that identifies a custom
// resource type to the reconciliation engine.
package resource

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// DefaultFinalizer is the framework-scoped finalizer token written into
// metadata.finalizers when a Descriptor is constructed without an explicit
// one.
const DefaultFinalizer = "operator.default.finalizer"

var dnsSubdomainPattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9.]*[a-z0-9])?$`)

// Descriptor carries the (group, version, plural) triple and finalizer name
// associated with a resource type. It is constructed once per type at
// registration and never mutated afterwards.
type Descriptor struct {
	group     string
	version   string
	plural    string
	finalizer string
}

// NewDescriptor builds a Descriptor for the given group/version/plural. If
// finalizer is empty, DefaultFinalizer is used. Returns an error if
// finalizer (explicit or defaulted) is not a valid DNS-subdomain-formatted
// string.
func NewDescriptor(group string, version string, plural string, finalizer string) (Descriptor, error) {
	if version == "" {
		return Descriptor{}, fmt.Errorf("version must not be empty")
	}
	if plural == "" {
		return Descriptor{}, fmt.Errorf("plural must not be empty")
	}
	if finalizer == "" {
		finalizer = DefaultFinalizer
	}
	if !dnsSubdomainPattern.MatchString(finalizer) || len(finalizer) > 253 {
		return Descriptor{}, errors.Errorf("finalizer %q is not a valid DNS-subdomain-formatted string", finalizer)
	}
	return Descriptor{group: group, version: version, plural: plural, finalizer: finalizer}, nil
}

func (d Descriptor) Group() string     { return d.group }
func (d Descriptor) Version() string   { return d.version }
func (d Descriptor) Plural() string    { return d.plural }
func (d Descriptor) Finalizer() string { return d.finalizer }

// GroupVersion returns the schema.GroupVersion this descriptor addresses.
func (d Descriptor) GroupVersion() schema.GroupVersion {
	return schema.GroupVersion{Group: d.group, Version: d.version}
}

// GroupVersionResource returns the schema.GroupVersionResource this
// descriptor addresses, suitable for a dynamic client.
func (d Descriptor) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: d.group, Version: d.version, Resource: d.plural}
}

// String renders the descriptor the way it shows up in log lines, e.g.
// "widgets.acme.example/v1".
func (d Descriptor) String() string {
	if d.group == "" {
		return fmt.Sprintf("%s/%s", d.plural, d.version)
	}
	return fmt.Sprintf("%s.%s/%s", d.plural, d.group, d.version)
}
