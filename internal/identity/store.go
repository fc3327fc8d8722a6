package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// StorageKey é a chave fixa sob a qual o token de sessão fica persistido no
// lado do cliente.
const StorageKey = "bet_platform_auth_token"

// TokenStore guarda o único estado local do cliente: uma string opaca (o token
// de sessão), durável entre reinícios do processo.
type TokenStore interface {
	Save(token string) error
	Load() (string, error) // "" quando não há token guardado
	Clear() error
}

// FileStore persiste o token num arquivo JSON {chave: token}.
// Escrita via arquivo temporário + rename pra não deixar estado meio-escrito.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Save(token string) error {
	b, err := json.Marshal(map[string]string{StorageKey: token})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		// arquivo corrompido equivale a não ter token
		return "", nil
	}
	return m[StorageKey], nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
