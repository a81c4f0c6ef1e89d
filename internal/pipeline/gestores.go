package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/charmap"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
)

// loadGestores applies the manager CSV export to the secretarias. The
// export comes from the portal as semicolon-separated Windows-1252, one
// (secretaria, gestor) pair per line.
func (p *Pipeline) loadGestores(ctx context.Context, exportsDir string) (int, error) {
	const component = "pipeline.gestores"

	path := filepath.Join(exportsDir, FileGestores)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn(component, "SKIP %s: arquivo ausente", FileGestores)
			return 0, nil
		}
		return 0, err
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return 0, err
	}

	df := dataframe.ReadCSV(strings.NewReader(string(decoded)),
		dataframe.WithDelimiter(';'),
		dataframe.HasHeader(true),
	)
	if df.Error() != nil {
		return 0, df.Error()
	}

	secretariaCol, gestorCol := -1, -1
	for i, name := range df.Names() {
		switch normalize.Text(name) {
		case "SECRETARIA", "ORGAO", "UNIDADE":
			secretariaCol = i
		case "GESTOR", "RESPONSAVEL", "TITULAR":
			gestorCol = i
		}
	}
	if secretariaCol == -1 || gestorCol == -1 {
		p.logger.Warn(component, "SKIP %s: colunas de secretaria/gestor nao encontradas (%v)", FileGestores, df.Names())
		return 0, nil
	}

	secretarias, err := p.storage.Secretarias.List(ctx)
	if err != nil {
		return 0, err
	}
	existentes := make([]string, 0, len(secretarias))
	for _, secretaria := range secretarias {
		existentes = append(existentes, secretaria.Nome)
	}
	sort.Strings(existentes)

	records := df.Records()[1:]
	applied := 0
	for _, record := range records {
		if secretariaCol >= len(record) || gestorCol >= len(record) {
			continue
		}
		nomeCSV := normalize.Text(normalize.Orgao(record[secretariaCol]))
		gestor := normalize.Text(record[gestorCol])
		if nomeCSV == "" || gestor == "" {
			continue
		}
		alvo := matchSecretaria(nomeCSV, existentes)
		if alvo == "" {
			alvo = nomeCSV
			if _, err := p.storage.Secretarias.GetOrCreate(ctx, alvo); err != nil {
				return applied, err
			}
			existentes = append(existentes, alvo)
			sort.Strings(existentes)
			p.logger.Warn(component, "secretaria %q criada a partir do CSV de gestores", alvo)
		}
		if err := p.storage.Secretarias.SetGestor(ctx, alvo, gestor); err != nil {
			return applied, err
		}
		applied++
	}
	p.logger.Info(component, "%d gestores atribuidos", applied)
	return applied, nil
}

// matchSecretaria finds the stored secretaria a CSV name refers to:
// exact normalized match first, then containment in either direction.
// Among containment candidates the longest name wins, then the
// lexicographically smallest, so reruns pick the same target. Names on
// the CSV side are short variants of the official unit names, which is
// why one-direction containment is not enough.
func matchSecretaria(nome string, existentes []string) string {
	for _, existente := range existentes {
		if existente == nome {
			return existente
		}
	}
	melhor := ""
	for _, existente := range existentes {
		if !strings.Contains(existente, nome) && !strings.Contains(nome, existente) {
			continue
		}
		if len(existente) > len(melhor) || (len(existente) == len(melhor) && existente < melhor) {
			melhor = existente
		}
	}
	return melhor
}
