// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apiserver

import (
	"fmt"
	"net/http"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

func (api *apiServer) handleVersion(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, api.version)
}

func (api *apiServer) handleRuns(ctx *gin.Context) {
	runs, err := api.db.GetRuns()
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, runs)
}

func (api *apiServer) handleRunTrials(ctx *gin.Context) {
	runID := ctx.Param("runId")
	trials, err := api.db.GetRunTrials(runID)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	if len(trials) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("run not found"), http.StatusNotFound,
		)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, trials)
}

func (api *apiServer) handleRunSummary(ctx *gin.Context) {
	runID := ctx.Param("runId")
	summary, err := api.db.GetRunSummary(runID)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	if len(summary) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("run not found"), http.StatusNotFound,
		)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, summary)
}
