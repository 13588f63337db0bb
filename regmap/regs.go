// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

// Register addresses.
const (
	ClockCtl            = 0x00
	DeviceID            = 0x01
	ErrorStatus         = 0x02
	SysCtl1             = 0x03
	SerialDataInterface = 0x04
	SysCtl2             = 0x05
	SoftMute            = 0x06
	MasterVolume        = 0x07
	Ch1Volume           = 0x08
	Ch2Volume           = 0x09
	Ch3Volume           = 0x0a
	VolumeConfig        = 0x0e
	ModulationLimit     = 0x10
	ICDelayCh1          = 0x11
	ICDelayCh2          = 0x12
	ICDelayCh3          = 0x13
	ICDelayCh4          = 0x14
	PWMShutdownGroup    = 0x19
	StartStopPeriod     = 0x1a
	OscTrim             = 0x1b
	BkndErr             = 0x1c
	InputMux            = 0x20
	Ch4SourceSelect     = 0x21
	PWMMux              = 0x25
	Ch1BQ0              = 0x29 // ch1 biquads 0..6 at 0x29-0x2f
	Ch2BQ0              = 0x30 // ch2 biquads 0..6 at 0x30-0x36
	DRC1AE              = 0x3a
	DRC1AA              = 0x3b
	DRC1AD              = 0x3c
	DRC2AE              = 0x3d
	DRC2AA              = 0x3e
	DRC2AD              = 0x3f
	DRC1T               = 0x40
	DRC1K               = 0x41
	DRC1O               = 0x42
	DRC2T               = 0x43
	DRC2K               = 0x44
	DRC2O               = 0x45
	DRCCtl              = 0x46
	BankSwitchEQCtl     = 0x50
	Ch1OutputMixer      = 0x51
	Ch2OutputMixer      = 0x52
	Ch1InputMixer       = 0x53
	Ch2InputMixer       = 0x54
	Ch3InputMixer       = 0x55
	OutputPostScale     = 0x56
	OutputPreScale      = 0x57
	Ch1BQ7              = 0x58
	Ch1BQ8              = 0x59
	SubBQ0              = 0x5a
	SubBQ1              = 0x5b
	Ch2BQ7              = 0x5c
	Ch2BQ8              = 0x5d
	PseudoCh2BQ0        = 0x5e
	Ch4OutputMixer      = 0x60
	Ch4InputMixer       = 0x61
	IDFPostScale        = 0x62
	DevAddrEnable       = 0xf8
	DevAddrUpdate       = 0xf9
)

var table = []Descriptor{
	{0x00, 1, "Clock control", true},
	{0x01, 1, "Device ID", true},
	{0x02, 1, "Error status", true},
	{0x03, 1, "System control reg1", true},
	{0x04, 1, "Serial data interface", true},
	{0x05, 1, "System control reg2", true},
	{0x06, 1, "Soft mute", true},
	{0x07, 1, "Master volume", true},
	{0x08, 1, "Channel 1 vol", true},
	{0x09, 1, "Channel 2 vol", true},
	{0x0a, 1, "Channel 3 vol", true},
	{0x0b, 1, "reserved", false},
	{0x0c, 1, "reserved", false},
	{0x0d, 1, "reserved", false},
	{0x0e, 1, "Volume configuration", true},
	{0x0f, 1, "reserved", false},
	{0x10, 1, "Modulation limit", true},
	{0x11, 1, "IC delay channel 1", true},
	{0x12, 1, "IC delay channel 2", true},
	{0x13, 1, "IC delay channel 3", true},
	{0x14, 1, "IC delay channel 4", true},
	{0x15, 1, "reserved", false},
	{0x16, 1, "reserved", false},
	{0x17, 1, "reserved", false},
	{0x18, 1, "reserved", false},
	{0x19, 1, "PWM channel shutdown group", true},
	{0x1a, 1, "Start/Stop period", true},
	{0x1b, 1, "Oscillator trim", true},
	{0x1c, 1, "BKND_ERR", true},
	{0x1d, 1, "reserved", false},
	{0x1e, 1, "reserved", false},
	{0x1f, 1, "reserved", false},
	{0x20, 4, "Input MUX", true},
	{0x21, 4, "Ch4 source select", true},
	{0x22, 4, "reserved", false},
	{0x23, 4, "reserved", false},
	{0x24, 4, "reserved", false},
	{0x25, 4, "PWM MUX", true},
	{0x26, 4, "reserved", false},
	{0x27, 4, "reserved", false},
	{0x28, 4, "reserved", false},
	{0x29, 20, "ch1_bq[0]", true},
	{0x2a, 20, "ch1_bq[1]", true},
	{0x2b, 20, "ch1_bq[2]", true},
	{0x2c, 20, "ch1_bq[3]", true},
	{0x2d, 20, "ch1_bq[4]", true},
	{0x2e, 20, "ch1_bq[5]", true},
	{0x2f, 20, "ch1_bq[6]", true},
	{0x30, 20, "ch2_bq[0]", true},
	{0x31, 20, "ch2_bq[1]", true},
	{0x32, 20, "ch2_bq[2]", true},
	{0x33, 20, "ch2_bq[3]", true},
	{0x34, 20, "ch2_bq[4]", true},
	{0x35, 20, "ch2_bq[5]", true},
	{0x36, 20, "ch2_bq[6]", true},
	{0x37, 4, "reserved", false},
	{0x38, 4, "reserved", false},
	{0x39, 4, "reserved", false},
	{0x3a, 8, "DRC1 ae", true},
	{0x3b, 8, "DRC1 aa", true},
	{0x3c, 8, "DRC1 ad", true},
	{0x3d, 8, "DRC2 ae", true},
	{0x3e, 8, "DRC2 aa", true},
	{0x3f, 8, "DRC2 ad", true},
	{0x40, 4, "DRC1-T", true},
	{0x41, 4, "DRC1-K", true},
	{0x42, 4, "DRC1-O", true},
	{0x43, 4, "DRC2-T", true},
	{0x44, 4, "DRC2-K", true},
	{0x45, 4, "DRC2-O", true},
	{0x46, 4, "DRC control", true},
	{0x47, 4, "reserved", false},
	{0x48, 4, "reserved", false},
	{0x49, 4, "reserved", false},
	{0x4a, 4, "reserved", false},
	{0x4b, 4, "reserved", false},
	{0x4c, 4, "reserved", false},
	{0x4d, 4, "reserved", false},
	{0x4e, 4, "reserved", false},
	{0x4f, 4, "reserved", false},
	{0x50, 4, "Bank switch& EQ Ctrl", true},
	{0x51, 12, "Ch1 output mixer", true},
	{0x52, 12, "Ch2 output mixer", true},
	{0x53, 16, "Ch1 input mixer", true},
	{0x54, 16, "Ch2 input mixer", true},
	{0x55, 12, "Ch3 input mixer", true},
	{0x56, 4, "Output post-scale", true},
	{0x57, 4, "Output pre-scale", true},
	{0x58, 20, "ch1_bq[7]", true},
	{0x59, 20, "ch1_bq[8]", true},
	{0x5a, 20, "Subchannel_bq[0]", true},
	{0x5b, 20, "Subchannel_bq[1]", true},
	{0x5c, 20, "ch2_bq[7]", true},
	{0x5d, 20, "ch2_bq[8]", true},
	{0x5e, 20, "pseudo_ch2_bq[0]", true},
	{0x5f, 4, "reserved", false},
	{0x60, 8, "ch4 output mixer", true},
	{0x61, 8, "ch4_input_mixer", true},
	{0x62, 4, "IDF post scale", true},
	{0xf8, 4, "Device address enable", true},
	{0xf9, 4, "Device address update", true},
}
