package pipeline

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
)

// Snapshot file names. The legacy set is the frozen export the portal
// produced before it went offline; the investigation set holds the
// year-wide pulls collected from the other sources.
const (
	FileReceitas   = "receitas2025.json"
	FileDespesas   = "despesas2025.json"
	FileLicitacoes = "licitacoes2025.json"
	FileContratos  = "contratos2025.json"
	FileServidores = "servidores2025.json"

	FileTCELicitacoes = "tce-licitacoes-2025.json"
	FileTCEContratos  = "tce-contratos-2025.json"
	FileTSEmendas     = "ts-emendas-2025.json"
	FileTSOrcamento   = "ts-orcamento-2025.json"
	FileTSServidores  = "ts-servidores-2025.json"
	FileTSReceitas    = "ts-receitas-2025.json"

	FileContexto = "municipio-contexto.json"

	FileGestores = "gestores.csv"
)

// readSnapshotRows reads one snapshot file and extracts its row list.
// A missing or unparseable file is a skip, not an error: the snapshot
// sets are partial by nature and one bad file must not discard the
// entities already loaded.
func (p *Pipeline) readSnapshotRows(dataDir, name string) ([]json.RawMessage, bool) {
	const component = "pipeline.snapshot"

	path := filepath.Join(dataDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn(component, "SKIP %s: arquivo ausente", name)
		} else {
			p.logger.Warn(component, "SKIP %s: %v", name, err)
		}
		return nil, false
	}
	if !json.Valid(raw) {
		p.logger.Warn(component, "SKIP %s: JSON invalido", name)
		return nil, false
	}
	rows := connector.Rows(raw)
	if rows == nil {
		p.logger.Warn(component, "SKIP %s: formato de payload nao reconhecido", name)
		return nil, false
	}
	p.logger.Debug(component, "%s: %d linhas", name, len(rows))
	return rows, true
}

// readServidoresMensais reads the legacy payroll file, which is a list
// of per-month payloads rather than a plain row list.
func (p *Pipeline) readServidoresMensais(dataDir string) ([]connector.ServidorMes, bool) {
	const component = "pipeline.snapshot"

	path := filepath.Join(dataDir, FileServidores)
	raw, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn(component, "SKIP %s: %v", FileServidores, err)
		return nil, false
	}
	var meses []connector.ServidorMes
	if err := json.Unmarshal(raw, &meses); err != nil {
		p.logger.Warn(component, "SKIP %s: %v", FileServidores, err)
		return nil, false
	}
	return meses, true
}
