package pipeline

import (
	"strings"
	"testing"
)

func testScriptParams() ScriptParams {
	return ScriptParams{
		JobID:         "job_ab12cd34_1700000000",
		Bucket:        "meta-bucket",
		RepositoryURL: "https://github.com/sathishthangasamy/metagenomics.git",
		ForwardURI:    "gs://meta-bucket/inputs/job_ab12cd34_1700000000/CV_1.fq.gz",
		ReverseURI:    "gs://meta-bucket/inputs/job_ab12cd34_1700000000/CV_2.fq.gz",
		Threads:       16,
		MinContigLen:  1000,
		Steps:         []string{"fastqc", "megahit", "checkm"},
	}
}

func TestRenderScriptDeterministic(t *testing.T) {
	t.Parallel()
	params := testScriptParams()

	first := RenderScript(params)
	second := RenderScript(params)
	if first != second {
		t.Error("rendering with identical params must be byte-identical")
	}
}

func TestRenderScriptContents(t *testing.T) {
	t.Parallel()
	script := RenderScript(testScriptParams())

	wantFragments := []string{
		"#!/bin/bash",
		"--threads 16",
		"--min-contig-len 1000",
		`--steps "fastqc,megahit,checkm"`,
		"--job-id job_ab12cd34_1700000000",
		"--bucket meta-bucket",
		"gs://meta-bucket/results/job_ab12cd34_1700000000/",
		"gs://meta-bucket/jobs/job_ab12cd34_1700000000/status.txt",
		"shutdown -h now",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(script, fragment) {
			t.Errorf("script missing %q", fragment)
		}
	}
}

func TestRenderScriptStepOrder(t *testing.T) {
	t.Parallel()
	// The orchestrator normalizes to catalog order before rendering; the
	// template joins whatever it is given, verbatim.
	params := testScriptParams()
	params.Steps = []string{"fastqc", "trimmomatic", "megahit"}

	script := RenderScript(params)
	if !strings.Contains(script, `--steps "fastqc,trimmomatic,megahit"`) {
		t.Error("steps not joined in given order")
	}
}
