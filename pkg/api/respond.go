// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kraklabs/argos/pkg/anvil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeStoreError maps an anvil.Error's Kind onto the HTTP status taxonomy
// of spec §6.2 (200/400/404/409/500), falling back to 500 for anything
// un-typed.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	var ae *anvil.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case anvil.KindNotFound:
			errorJSON(w, http.StatusNotFound, "not_found", err.Error())
			return
		case anvil.KindConstraint:
			errorJSON(w, http.StatusConflict, "constraint", err.Error())
			return
		case anvil.KindBusy:
			errorJSON(w, http.StatusConflict, "busy", err.Error())
			return
		case anvil.KindCorruption:
			errorJSON(w, http.StatusInternalServerError, "corruption", err.Error())
			return
		}
	}
	errorJSON(w, http.StatusInternalServerError, "internal", op+": "+err.Error())
}
