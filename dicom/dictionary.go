// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

// Tags of the DICOM data dictionary used by this package. Tags defined with wildcards, like
// Curve Data (50xx,3000), have the x's set to 0.
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	FileMetaInformationVersionTag     DataElementTag = 0x00020001
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012
	ImplementationVersionNameTag      DataElementTag = 0x00020013

	SpecificCharacterSetTag     DataElementTag = 0x00080005
	ImageTypeTag                DataElementTag = 0x00080008
	SOPClassUIDTag              DataElementTag = 0x00080016
	SOPInstanceUIDTag           DataElementTag = 0x00080018
	StudyDateTag                DataElementTag = 0x00080020
	ModalityTag                 DataElementTag = 0x00080060
	ReferencedStudySequenceTag  DataElementTag = 0x00081110
	ReferencedImageSequenceTag  DataElementTag = 0x00081140
	ReferencedSOPClassUIDTag    DataElementTag = 0x00081150
	ReferencedSOPInstanceUIDTag DataElementTag = 0x00081155

	PatientNameTag      DataElementTag = 0x00100010
	PatientIDTag        DataElementTag = 0x00100020
	PatientBirthDateTag DataElementTag = 0x00100030

	TargetUIDTag DataElementTag = 0x00182042

	StudyInstanceUIDTag  DataElementTag = 0x0020000D
	SeriesInstanceUIDTag DataElementTag = 0x0020000E
	InstanceNumberTag    DataElementTag = 0x00200013

	SamplesPerPixelTag       DataElementTag = 0x00280002
	FrameIncrementPointerTag DataElementTag = 0x00280009
	RowsTag                  DataElementTag = 0x00280010
	ColumnsTag               DataElementTag = 0x00280011
	PixelSpacingTag          DataElementTag = 0x00280030
	BitsAllocatedTag         DataElementTag = 0x00280100
	PixelDataProviderURLTag  DataElementTag = 0x00287FE0

	EncapsulatedDocumentTag DataElementTag = 0x00420011
	AudioSampleDataTag      DataElementTag = 0x5000200C
	CurveDataTag            DataElementTag = 0x50003000
	WaveformDataTag         DataElementTag = 0x54001010
	SpectroscopyDataTag     DataElementTag = 0x56000020
	OverlayDataTag          DataElementTag = 0x60003000
	FloatPixelDataTag       DataElementTag = 0x7FE00008
	DoubleFloatPixelDataTag DataElementTag = 0x7FE00009
	PixelDataTag            DataElementTag = 0x7FE00010

	ItemTag                     DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag     DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD
)

type dictionaryEntry struct {
	vr   *VR
	name string
}

var dictionary = map[DataElementTag]dictionaryEntry{
	FileMetaInformationGroupLengthTag: {ULVR, "FileMetaInformationGroupLength"},
	FileMetaInformationVersionTag:     {OBVR, "FileMetaInformationVersion"},
	MediaStorageSOPClassUIDTag:        {UIVR, "MediaStorageSOPClassUID"},
	MediaStorageSOPInstanceUIDTag:     {UIVR, "MediaStorageSOPInstanceUID"},
	TransferSyntaxUIDTag:              {UIVR, "TransferSyntaxUID"},
	ImplementationClassUIDTag:         {UIVR, "ImplementationClassUID"},
	ImplementationVersionNameTag:      {SHVR, "ImplementationVersionName"},
	SpecificCharacterSetTag:           {CSVR, "SpecificCharacterSet"},
	ImageTypeTag:                      {CSVR, "ImageType"},
	SOPClassUIDTag:                    {UIVR, "SOPClassUID"},
	SOPInstanceUIDTag:                 {UIVR, "SOPInstanceUID"},
	StudyDateTag:                      {DAVR, "StudyDate"},
	ModalityTag:                       {CSVR, "Modality"},
	ReferencedStudySequenceTag:        {SQVR, "ReferencedStudySequence"},
	ReferencedImageSequenceTag:        {SQVR, "ReferencedImageSequence"},
	ReferencedSOPClassUIDTag:          {UIVR, "ReferencedSOPClassUID"},
	ReferencedSOPInstanceUIDTag:       {UIVR, "ReferencedSOPInstanceUID"},
	PatientNameTag:                    {PNVR, "PatientName"},
	PatientIDTag:                      {LOVR, "PatientID"},
	PatientBirthDateTag:               {DAVR, "PatientBirthDate"},
	TargetUIDTag:                      {UIVR, "TargetUID"},
	StudyInstanceUIDTag:               {UIVR, "StudyInstanceUID"},
	SeriesInstanceUIDTag:              {UIVR, "SeriesInstanceUID"},
	InstanceNumberTag:                 {ISVR, "InstanceNumber"},
	SamplesPerPixelTag:                {USVR, "SamplesPerPixel"},
	FrameIncrementPointerTag:          {ATVR, "FrameIncrementPointer"},
	RowsTag:                           {USVR, "Rows"},
	ColumnsTag:                        {USVR, "Columns"},
	PixelSpacingTag:                   {DSVR, "PixelSpacing"},
	BitsAllocatedTag:                  {USVR, "BitsAllocated"},
	PixelDataProviderURLTag:           {URVR, "PixelDataProviderURL"},
	EncapsulatedDocumentTag:           {OBVR, "EncapsulatedDocument"},
	WaveformDataTag:                   {OWVR, "WaveformData"},
	SpectroscopyDataTag:               {OFVR, "SpectroscopyData"},
	FloatPixelDataTag:                 {OFVR, "FloatPixelData"},
	DoubleFloatPixelDataTag:           {ODVR, "DoubleFloatPixelData"},
	PixelDataTag:                      {OWVR, "PixelData"},
	ItemTag:                           {nil, "Item"},
	ItemDelimitationItemTag:           {nil, "ItemDelimitationItem"},
	SequenceDelimitationItemTag:       {nil, "SequenceDelimitationItem"},
}

// wildcardDictionary holds the entries defined with wildcards, e.g. (50xx,3000)
var wildcardDictionary = map[DataElementTag]dictionaryEntry{
	AudioSampleDataTag: {OWVR, "AudioSampleData"},
	CurveDataTag:       {OWVR, "CurveData"},
	OverlayDataTag:     {OWVR, "OverlayData"},
}

// wildcardMasks handles all wildcards in the DICOM data dictionary. A tag of the form (50xx,3000)
// matches CurveDataTag when (tag & 0xFF00FFFF) == CurveDataTag.
var wildcardMasks = []uint32{0xFFFFFF00, 0xFFFFFF0F, 0xFFFF000F, 0xFFFF0000, 0xFF00FFFF}

func lookupDictionary(t DataElementTag) (dictionaryEntry, bool) {
	if entry, ok := dictionary[t]; ok {
		return entry, true
	}
	for _, m := range wildcardMasks {
		if entry, ok := wildcardDictionary[DataElementTag(uint32(t)&m)]; ok {
			return entry, true
		}
	}
	return dictionaryEntry{}, false
}

// DictionaryVR returns the VR of the tag in the data dictionary. Group length elements are UL,
// private creator elements are LO and any tag missing from the dictionary is UN.
func (t DataElementTag) DictionaryVR() *VR {
	if t.IsGroupLength() && !t.isDelimiter() {
		return ULVR
	}
	if t.IsPrivate() && t.ElementNumber() >= 0x0010 && t.ElementNumber() <= 0x00FF {
		return LOVR
	}
	if entry, ok := lookupDictionary(t); ok && entry.vr != nil {
		return entry.vr
	}
	return UNVR
}

// Name returns the keyword of the tag in the data dictionary or "" if the tag is unknown
func (t DataElementTag) Name() string {
	if entry, ok := lookupDictionary(t); ok {
		return entry.name
	}
	if t.IsGroupLength() {
		return "GroupLength"
	}
	return ""
}
