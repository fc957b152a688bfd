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

package mdio

import (
	"github.com/iomux/IOWorker/pkg/metrics"
)

const (
	subSystem = "mdio"
)

var (
	transactionsTotal = metrics.MustRegisterCounterVec(subSystem,
		"transactions_total",
		"Total number of MDIO register accesses per master",
		"master")
	transactionFailuresTotal = metrics.MustRegisterCounterVec(subSystem,
		"transaction_failures_total",
		"Total number of failed MDIO register accesses per master",
		"master")
	resetsTotal = metrics.MustRegisterCounterVec(subSystem,
		"resets_total",
		"Total number of MDIO master resets",
		"master")
)
