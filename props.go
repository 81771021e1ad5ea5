package liftplane

// Well-known property names, interned to small integers so that lookups
// during allocation don't repeatedly compare strings. Anything not in this
// list still works: it's tracked in a layer's or plane's property table by
// name only, just without the O(1) index.
const (
	PropFBID      = "FB_ID"
	PropCRTCID    = "CRTC_ID"
	PropCRTCX     = "CRTC_X"
	PropCRTCY     = "CRTC_Y"
	PropCRTCW     = "CRTC_W"
	PropCRTCH     = "CRTC_H"
	PropSRCX      = "SRC_X"
	PropSRCY      = "SRC_Y"
	PropSRCW      = "SRC_W"
	PropSRCH      = "SRC_H"
	PropZpos      = "zpos"
	PropAlpha     = "alpha"
	PropRotation  = "rotation"
	PropType      = "type"
	maxPropNameLen = 32
)

type basicProp int

const (
	basicFBID basicProp = iota
	basicCRTCID
	basicCRTCX
	basicCRTCY
	basicCRTCW
	basicCRTCH
	basicSRCX
	basicSRCY
	basicSRCW
	basicSRCH
	basicZpos
	basicAlpha
	basicRotation
	basicType
	numBasicProps
)

var basicPropByName = map[string]basicProp{
	PropFBID:     basicFBID,
	PropCRTCID:   basicCRTCID,
	PropCRTCX:    basicCRTCX,
	PropCRTCY:    basicCRTCY,
	PropCRTCW:    basicCRTCW,
	PropCRTCH:    basicCRTCH,
	PropSRCX:     basicSRCX,
	PropSRCY:     basicSRCY,
	PropSRCW:     basicSRCW,
	PropSRCH:     basicSRCH,
	PropZpos:     basicZpos,
	PropAlpha:    basicAlpha,
	PropRotation: basicRotation,
	PropType:     basicType,
}

func internBasicProp(name string) (basicProp, bool) {
	idx, ok := basicPropByName[name]
	return idx, ok
}

// AlphaOpaque is the fully-opaque value for the "alpha" property.
const AlphaOpaque = 0xFFFF

// RotationNone is the "no rotation" value for the "rotation" property.
const RotationNone = 0
