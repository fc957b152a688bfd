//    Copyright 2024 The IOWorker authors
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package smbus

import (
	"github.com/iomux/IOWorker/pkg/metrics"
)

const (
	subSystem = "smbus"
)

var (
	// Total number of SMBus transactions started
	transactionsTotal = metrics.MustRegisterCounterVec(subSystem,
		"transactions_total",
		"Total number of SMBus transactions started",
		"master")
	// Total number of SMBus transactions that failed after retries
	transactionFailuresTotal = metrics.MustRegisterCounterVec(subSystem,
		"transaction_failures_total",
		"Total number of SMBus transactions that failed",
		"master")
	// Total number of SMBus transaction attempts that were retried
	transactionRetriesTotal = metrics.MustRegisterCounterVec(subSystem,
		"transaction_retries_total",
		"Total number of SMBus transaction attempts that were retried",
		"master")
	// Total number of master resets issued
	resetsTotal = metrics.MustRegisterCounterVec(subSystem,
		"resets_total",
		"Total number of master resets issued",
		"master")
)
