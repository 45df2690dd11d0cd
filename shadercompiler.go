package vku

import (
	"fmt"
	"os"

	"github.com/gogpu/naga"
)

// CompilationResult carries either compiled SPIR-V or the compiler's
// diagnostic text. Callers check Failed before using the artifact;
// failure is an ordinary value, not an error of this package.
type CompilationResult struct {
	spirv []uint32
	err   error
}

func (r *CompilationResult) Failed() bool {
	return r.err != nil
}

// ErrorString returns the compiler diagnostic, empty on success.
func (r *CompilationResult) ErrorString() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// SPIRV returns the compiled module as 32 bit words. Calling it on a
// failed result is a programming error.
func (r *CompilationResult) SPIRV() []uint32 {
	if r.err != nil {
		panic(fmt.Sprintf("spirv requested from failed compilation: %s", r.err))
	}
	return r.spirv
}

// Reflect extracts reflection data from the compiled module.
func (r *CompilationResult) Reflect() (*ShaderReflection, error) {
	if r.err != nil {
		return nil, fmt.Errorf("reflection requested from failed compilation: %w", r.err)
	}
	return ReflectSPIRV(r.spirv)
}

// CompileShader compiles WGSL source to SPIR-V.
func CompileShader(source string) *CompilationResult {
	raw, err := naga.Compile(source)
	if err != nil {
		return &CompilationResult{err: err}
	}
	return &CompilationResult{spirv: wordsFromBytes(raw)}
}

// CompileShaderFile compiles a WGSL file. A missing or unreadable file
// is reported like a compilation failure so the caller has one path for
// diagnostics.
func CompileShaderFile(path string) *CompilationResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return &CompilationResult{err: err}
	}
	return CompileShader(string(source))
}

// LoadSPIRVFile reads a compiled SPIR-V binary as 32 bit words.
func LoadSPIRVFile(path string) ([]uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("spirv file %s is not a whole number of words", path)
	}
	return wordsFromBytes(raw), nil
}

// SPIR-V is little endian 32 bit words.
func wordsFromBytes(raw []byte) []uint32 {
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = uint32(raw[i*4]) |
			uint32(raw[i*4+1])<<8 |
			uint32(raw[i*4+2])<<16 |
			uint32(raw[i*4+3])<<24
	}
	return words
}
