package images

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// URLPrefix es el prefijo bajo el que se sirven las imagenes generadas.
const URLPrefix = "/images/"

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidName   = errors.New("invalid image name")
	ErrStore         = errors.New("image store error")
)

// FileStore guarda imagenes como archivos planos dentro de un directorio fijo.
// La URL es el prefijo mas el nombre, asi un servidor estatico mapea URL a disco.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Save escribe los bytes bajo name y devuelve su URL. El directorio se crea si falta.
func (s *FileStore) Save(name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create dir: %v", ErrStore, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrStore, name, err)
	}
	return URLFor(name), nil
}

// Open acepta una URL (/images/x.png) o un nombre pelado.
func (s *FileStore) Open(urlOrName string) ([]byte, error) {
	name := strings.TrimPrefix(urlOrName, URLPrefix)
	if err := validateName(name); err != nil {
		return nil, ErrImageNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStore, name, err)
	}
	return data, nil
}

// Remove borra una imagen; se usa para deshacer un lote a medio escribir.
func (s *FileStore) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrStore, name, err)
	}
	return nil
}

// URLFor deriva la URL publica a partir del nombre de archivo.
func URLFor(name string) string {
	return URLPrefix + name
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
