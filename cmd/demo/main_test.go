package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/samples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvidence(t *testing.T) {
	got, err := parseEvidence([]string{"hearBark=hearBark", "bowelProblem=noBowelProblem"})
	require.NoError(t, err)
	assert.Equal(t, []observation{
		{variable: "hearBark", state: "hearBark"},
		{variable: "bowelProblem", state: "noBowelProblem"},
	}, got)

	for _, bad := range []string{"hearBark", "=x", "hearBark="} {
		_, err := parseEvidence([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestDemo_DogProblem(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-q", "lightOn", "-e", "hearBark=hearBark", "-e", "bowelProblem=noBowelProblem"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "lightOn=0.132500")
	assert.Contains(t, out.String(), "lightOn=0.236519")
	assert.Contains(t, out.String(), "P = 0.276309")
}

func TestDemo_DefaultEvidence(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "prior beliefs")
	assert.Contains(t, out.String(), "lightOn=0.132500")
	assert.Contains(t, out.String(), "given {bowelProblem=noBowelProblem, hearBark=hearBark}")
	assert.Contains(t, out.String(), "lightOn=0.236519")
}

func TestDemo_NoEvidence(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--no-evidence", "-q", "lightOn"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "lightOn=0.132500")
	assert.NotContains(t, out.String(), "given")
}

func TestDemo_UnknownEvidence(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-e", "catOut=yes"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, bayesnet.ErrUnknownVariable)
}

func TestDemo_FromFile(t *testing.T) {
	for _, format := range []string{domain.FormatJSON, domain.FormatYAML} {
		t.Run(format, func(t *testing.T) {
			data, err := domain.EncodeDefinition(samples.DogProblem(), format)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "dog."+format)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"--file", path, "-e", "hearBark=hearBark", "-e", "bowelProblem=noBowelProblem"})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), "network dog:")
			assert.Contains(t, out.String(), "lightOn=0.236519")
			for _, name := range []string{"hearBark", "dogOut", "bowelProblem", "familyOut"} {
				assert.Contains(t, out.String(), name+"=")
			}
		})
	}
}

func TestDogProblem_MatchesSample(t *testing.T) {
	imperative, err := dogProblem()
	require.NoError(t, err)

	parents, err := imperative.Parents("dogOut")
	require.NoError(t, err)
	assert.Equal(t, []string{"familyOut", "bowelProblem"}, parents)
	assert.Equal(t, bayesnet.Compiled, imperative.Lifecycle())
}
