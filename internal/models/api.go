/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import "time"

// Scan modes
const (
	ModeProposed = "proposed"
	ModeLegacy   = "legacy"
)

// EmailResults counts what happened to scanned emails and generated bills
type EmailResults struct {
	Processed     int `json:"processed"`
	Proposed      int `json:"proposed"`
	Created       int `json:"created"`
	Paid          int `json:"paid"`
	Skipped       int `json:"skipped"`
	Errors        int `json:"errors"`
	Notifications int `json:"notifications"`
	Generated     int `json:"generated"`
}

// TransactionResults counts the bank sync stage
type TransactionResults struct {
	Synced      int      `json:"synced"`
	AutoMatched int      `json:"autoMatched"`
	Skipped     int      `json:"skipped"`
	Duplicates  int      `json:"duplicates"`
	Errors      []string `json:"errors"`
}

// ScanReport is the job report returned by the trigger endpoint and the CLI
type ScanReport struct {
	Success      bool               `json:"success"`
	Timestamp    time.Time          `json:"timestamp"`
	DaysBack     int                `json:"daysBack"`
	Mode         string             `json:"mode"`
	EmailsFound  int                `json:"emailsFound"`
	Results      EmailResults       `json:"results"`
	Transactions TransactionResults `json:"transactions"`
	Error        string             `json:"error,omitempty"`
}

// NewScanReport returns a report with non-nil error list so it encodes as []
func NewScanReport(now time.Time, daysBack int, mode string) *ScanReport {
	return &ScanReport{
		Success:   true,
		Timestamp: now,
		DaysBack:  daysBack,
		Mode:      mode,
		Transactions: TransactionResults{
			Errors: []string{},
		},
	}
}
