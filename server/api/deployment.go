package api

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"runtime/debug"
)

// DeploymentInformation is the key-value build and runtime information served
// by the about endpoint.
type DeploymentInformation map[string]string

// Keys published in the deployment information.
const (
	trainingWheelsVerificationKey = "training_wheels_verification_key"
	imageTagKey                   = "image_tag"
)

// NewDeploymentInformation collects build information and the training
// wheels verification key, so operators can confirm which key a deployment
// signs with.
func NewDeploymentInformation(twPublicKey ed25519.PublicKey) DeploymentInformation {
	info := DeploymentInformation{}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info["go_version"] = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info["commit_hash"] = setting.Value
			case "vcs.time":
				info["build_time"] = setting.Value
			case "vcs.modified":
				info["build_is_dirty"] = setting.Value
			}
		}
	}

	if tag := os.Getenv("IMAGE_TAG"); tag != "" {
		info[imageTagKey] = tag
	}

	if twPublicKey != nil {
		info[trainingWheelsVerificationKey] = "0x" + hex.EncodeToString(twPublicKey)
	}

	return info
}
