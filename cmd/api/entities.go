package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/pipeline"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/response"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

func (app *application) handleListLicitacoes(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Licitacoes.List(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list licitacoes: "+err.Error())
		return
	}
	respondList(w, r, data, "licitacoes", "Successfully listed licitacoes")
}

func (app *application) handleListContratos(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Contratos.List(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list contratos: "+err.Error())
		return
	}
	respondList(w, r, data, "contratos", "Successfully listed contratos")
}

func (app *application) handleListFornecedores(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Fornecedores.List(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list fornecedores: "+err.Error())
		return
	}
	respondList(w, r, data, "fornecedores", "Successfully listed fornecedores")
}

func (app *application) handleListServidores(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Servidores.List(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list servidores: "+err.Error())
		return
	}
	respondList(w, r, data, "servidores", "Successfully listed servidores")
}

func (app *application) handleListSecretarias(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Secretarias.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list secretarias: "+err.Error())
		return
	}
	respondList(w, r, data, "secretarias", "Successfully listed secretarias")
}

func (app *application) handleListVereadores(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Vereadores.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list vereadores: "+err.Error())
		return
	}
	respondList(w, r, data, "vereadores", "Successfully listed vereadores")
}

func (app *application) handleListEmendas(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Financas.ListEmendas(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list emendas: "+err.Error())
		return
	}
	respondList(w, r, data, "emendas", "Successfully listed emendas")
}

func (app *application) handleListOrcamento(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Financas.ListOrcamento(r.Context(), listOptions(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list orcamento: "+err.Error())
		return
	}
	respondList(w, r, data, "orcamento", "Successfully listed orcamento items")
}

type GetReceitaResponse = response.APIResponse[*store.ReceitaResumo]

func (app *application) handleGetReceita(w http.ResponseWriter, r *http.Request) {
	ano, err := strconv.Atoi(chi.URLParam(r, "ano"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid ano parameter")
		return
	}
	data, err := app.store.Financas.GetReceita(r.Context(), ano)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get receita: "+err.Error())
		return
	}
	if data == nil {
		writeJSONError(w, http.StatusNotFound, "no receita for the requested year")
		return
	}

	resp := &GetReceitaResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved receita summary",
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleListDespesas(w http.ResponseWriter, r *http.Request) {
	ano := queryInt(r, "ano", pipeline.ExercicioReferencia)
	data, err := app.store.Financas.ListDespesas(r.Context(), ano)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list despesas: "+err.Error())
		return
	}
	respondList(w, r, data, "despesas", "Successfully listed despesas by secretaria")
}
