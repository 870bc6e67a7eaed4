/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// IsConflict reports whether err is an HTTP 409 Conflict, the structured
// error type required of a conforming Client implementation.
func IsConflict(err error) bool {
	return apierrors.IsConflict(err)
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}
