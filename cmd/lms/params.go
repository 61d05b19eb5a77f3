package main

import (
	"fmt"

	"github.com/trailofbits/hsslms-go/lms/common"
)

var lmsByName = map[string]common.LmsAlgorithmType{
	"LMS_SHA256_M32_H5":  common.LMS_SHA256_M32_H5,
	"LMS_SHA256_M32_H10": common.LMS_SHA256_M32_H10,
	"LMS_SHA256_M32_H15": common.LMS_SHA256_M32_H15,
	"LMS_SHA256_M32_H20": common.LMS_SHA256_M32_H20,
	"LMS_SHA256_M32_H25": common.LMS_SHA256_M32_H25,
	"LMS_SHA256_M24_H5":  common.LMS_SHA256_M24_H5,
	"LMS_SHA256_M24_H10": common.LMS_SHA256_M24_H10,
	"LMS_SHA256_M24_H15": common.LMS_SHA256_M24_H15,
	"LMS_SHA256_M24_H20": common.LMS_SHA256_M24_H20,
	"LMS_SHA256_M24_H25": common.LMS_SHA256_M24_H25,
}

var lmotsByName = map[string]common.LmsOtsAlgorithmType{
	"LMOTS_SHA256_N32_W1": common.LMOTS_SHA256_N32_W1,
	"LMOTS_SHA256_N32_W2": common.LMOTS_SHA256_N32_W2,
	"LMOTS_SHA256_N32_W4": common.LMOTS_SHA256_N32_W4,
	"LMOTS_SHA256_N32_W8": common.LMOTS_SHA256_N32_W8,
	"LMOTS_SHA256_N24_W1": common.LMOTS_SHA256_N24_W1,
	"LMOTS_SHA256_N24_W2": common.LMOTS_SHA256_N24_W2,
	"LMOTS_SHA256_N24_W4": common.LMOTS_SHA256_N24_W4,
	"LMOTS_SHA256_N24_W8": common.LMOTS_SHA256_N24_W8,
}

func parseLmsType(name string) (common.LmsAlgorithmType, error) {
	tc, ok := lmsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown LMS parameter set %q", name)
	}
	return tc, nil
}

func parseLmotsType(name string) (common.LmsOtsAlgorithmType, error) {
	tc, ok := lmotsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown LM-OTS parameter set %q", name)
	}
	return tc, nil
}
