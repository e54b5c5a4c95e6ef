// Package project scaffolds a ROS project directory: Docker build
// tooling, install scripts, catkin/colcon configuration, Git setup and
// an optional VSCode workspace, all derived from one validated request.
package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eutrob/rosforge/internal/imageref"
)

// Request describes the project to scaffold. ImageID and Platform are
// optional; empty values are resolved to <project id>:latest and the
// host's native platform.
type Request struct {
	ProjectID  string `validate:"required"`
	ProjectDir string `validate:"required"`
	RosDistro  string `validate:"required"`
	BaseImg    string `validate:"required,imageref"`
	ImageID    string `validate:"omitempty,imageref"`
	Platform   string
	ImgUser    string `validate:"required"`
	VSCode     bool
	PreCommit  bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("imageref", func(fl validator.FieldLevel) bool {
		return imageref.Valid(fl.Field().String())
	})
	return v
}

// normalize trims whitespace and fills in the default image id.
func (r *Request) normalize() {
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	r.ProjectDir = strings.TrimSpace(r.ProjectDir)
	r.RosDistro = strings.TrimSpace(r.RosDistro)
	r.BaseImg = strings.TrimSpace(r.BaseImg)
	r.ImageID = strings.TrimSpace(r.ImageID)
	r.Platform = strings.TrimSpace(r.Platform)
	r.ImgUser = strings.TrimSpace(r.ImgUser)

	if r.ImageID == "" && r.ProjectID != "" {
		r.ImageID = r.ProjectID + ":latest"
	}
}

func (r Request) validateFields() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return r.fieldError(verrs[0])
	}
	return err
}

func (r Request) fieldError(e validator.FieldError) error {
	switch e.StructField() {
	case "ProjectID":
		return errors.New("project id must be a non-empty string")
	case "ProjectDir":
		return errors.New("project directory must be provided")
	case "RosDistro":
		return errors.New("ROS distro must be a non-empty string")
	case "BaseImg":
		if e.Tag() == "imageref" {
			return fmt.Errorf("base image %q is not a valid Docker image reference", r.BaseImg)
		}
		return errors.New("base image must be a non-empty string")
	case "ImageID":
		return fmt.Errorf("image id %q is not a valid Docker image reference", r.ImageID)
	case "ImgUser":
		return errors.New("image user must be a non-empty string")
	default:
		return fmt.Errorf("invalid field %s", e.StructField())
	}
}
