package pipeline

import (
	"strings"
	"text/template"
)

// ScriptParams are the inputs to the bootstrap script template. Building the
// script is a pure function of these values: no clock, no randomness, no
// network. Rendering twice with equal params yields byte-identical output.
type ScriptParams struct {
	JobID         string
	Bucket        string
	RepositoryURL string
	ForwardURI    string // object URI for forward reads
	ReverseURI    string // object URI for reverse reads
	Threads       int
	MinContigLen  int
	Steps         []string // enabled step ids, catalog order
}

// RenderScript produces the instance startup script. The script installs a
// container runtime, builds the pipeline image, stages the two inputs, runs
// the pipeline with explicit flags, uploads results/<job_id>/, writes the
// completion marker at jobs/<job_id>/status.txt, and powers the instance off.
func RenderScript(p ScriptParams) string {
	var b strings.Builder
	// template.Execute on a strings.Builder cannot fail for this template.
	_ = bootstrapTemplate.Execute(&b, struct {
		ScriptParams
		StepsJoined string
	}{p, strings.Join(p.Steps, ",")})
	return b.String()
}

var bootstrapTemplate = template.Must(template.New("bootstrap").Parse(`#!/bin/bash
set -e

# Log all output
exec > >(tee -a /var/log/startup-script.log)
exec 2>&1

echo "Starting metagenomics pipeline for job: {{.JobID}}"
echo "Timestamp: $(date)"

# Update and install dependencies
apt-get update
apt-get install -y docker.io git

# Start Docker
systemctl start docker
systemctl enable docker

# Clone the repository
cd /home
git clone {{.RepositoryURL}}
cd metagenomics

# Build Docker image
docker build -t metagenomics:latest .

# Install additional tools in container
docker run --name pipeline -d metagenomics:latest sleep infinity
docker exec pipeline apt-get update
docker exec pipeline apt-get install -y seqkit parallel vim google-cloud-sdk

# Create data directory
docker exec pipeline mkdir -p /data

# Download input files
echo "Downloading input files..."
docker exec pipeline gsutil cp {{.ForwardURI}} /data/CV_1.fq.gz
docker exec pipeline gsutil cp {{.ReverseURI}} /data/CV_2.fq.gz

# Run the pipeline
echo "Running pipeline with parameters:"
echo "  Threads: {{.Threads}}"
echo "  Min contig length: {{.MinContigLen}}"
echo "  Enabled steps: {{.StepsJoined}}"

# Copy pipeline script
docker cp pipeline/run.sh pipeline:/pipeline/run.sh
docker exec pipeline chmod +x /pipeline/run.sh

# Execute the pipeline
docker exec pipeline /pipeline/run.sh \
    --threads {{.Threads}} \
    --min-contig-len {{.MinContigLen}} \
    --steps "{{.StepsJoined}}" \
    --job-id {{.JobID}} \
    --bucket {{.Bucket}}

# Upload results
echo "Uploading results..."
docker exec pipeline gsutil -m cp -r /data/results/* gs://{{.Bucket}}/results/{{.JobID}}/

echo "Pipeline completed successfully"
echo "Timestamp: $(date)"

# Create completion marker
echo "DONE" | docker exec -i pipeline gsutil cp - gs://{{.Bucket}}/jobs/{{.JobID}}/status.txt

# Shutdown the VM
shutdown -h now
`))
